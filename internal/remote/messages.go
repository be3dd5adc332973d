// ABOUTME: Wire message types for the live multimodal session protocol
// ABOUTME: JSON frames for setup, realtime input, and server content
package remote

// Outbound mime types. Audio is raw 16-bit PCM at the capture rate;
// frames are compressed stills.
const (
	AudioMimeType = "audio/pcm;rate=16000"
	ImageMimeType = "image/jpeg"
)

// setupMessage is the first client frame of a session. The server
// acknowledges it with a setupComplete frame.
type setupMessage struct {
	Setup setupPayload `json:"setup"`
}

type setupPayload struct {
	Model             string           `json:"model"`
	GenerationConfig  generationConfig `json:"generationConfig"`
	SystemInstruction *contentPayload  `json:"systemInstruction,omitempty"`
}

type generationConfig struct {
	ResponseModalities []string      `json:"responseModalities"`
	SpeechConfig       *speechConfig `json:"speechConfig,omitempty"`
}

type speechConfig struct {
	VoiceConfig voiceConfig `json:"voiceConfig"`
}

type voiceConfig struct {
	PrebuiltVoiceConfig prebuiltVoice `json:"prebuiltVoiceConfig"`
}

type prebuiltVoice struct {
	VoiceName string `json:"voiceName"`
}

type contentPayload struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text       string `json:"text,omitempty"`
	InlineData *blob  `json:"inlineData,omitempty"`
}

// blob carries one base64 media payload with its mime type.
type blob struct {
	MIMEType string `json:"mimeType"`
	Data     string `json:"data"`
}

// realtimeMessage carries microphone audio or video frames upstream.
type realtimeMessage struct {
	RealtimeInput realtimeInput `json:"realtimeInput"`
}

type realtimeInput struct {
	MediaChunks []blob `json:"mediaChunks"`
}

// serverMessage is the envelope for every inbound text frame.
type serverMessage struct {
	SetupComplete *struct{}      `json:"setupComplete,omitempty"`
	ServerContent *serverContent `json:"serverContent,omitempty"`
}

type serverContent struct {
	ModelTurn    *contentPayload `json:"modelTurn,omitempty"`
	Interrupted  bool            `json:"interrupted,omitempty"`
	TurnComplete bool            `json:"turnComplete,omitempty"`
}
