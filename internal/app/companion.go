// ABOUTME: Main companion application orchestration
// ABOUTME: Coordinates catalog, session manager, devices, and UI
package app

import (
	"context"
	"fmt"
	"log"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Watchbird-Live/watchbird-go/internal/catalog"
	"github.com/Watchbird-Live/watchbird-go/internal/config"
	"github.com/Watchbird-Live/watchbird-go/internal/device"
	"github.com/Watchbird-Live/watchbird-go/internal/playback"
	"github.com/Watchbird-Live/watchbird-go/internal/poster"
	"github.com/Watchbird-Live/watchbird-go/internal/remote"
	"github.com/Watchbird-Live/watchbird-go/internal/session"
	"github.com/Watchbird-Live/watchbird-go/internal/ui"
)

// Companion is the main application.
type Companion struct {
	config   config.Config
	headless bool

	store    *catalog.Store
	fetcher  *poster.Fetcher
	video    *device.PosterSource
	manager  *session.Manager
	controls *ui.Controls
	tuiProg  *tea.Program

	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a companion application from loaded configuration.
func New(cfg config.Config, headless bool) *Companion {
	ctx, cancel := context.WithCancel(context.Background())

	return &Companion{
		config:   cfg,
		headless: headless,
		video:    device.NewPosterSource(),
		controls: ui.NewControls(),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start runs the application until Stop is called or the UI quits.
func (c *Companion) Start() error {
	store, err := catalog.Open(c.config.Paths.CatalogDB)
	if err != nil {
		return fmt.Errorf("open catalog: %w", err)
	}
	c.store = store

	items, err := store.List(c.ctx)
	if err != nil {
		return fmt.Errorf("list catalog: %w", err)
	}

	fetcher, err := poster.NewFetcher(c.config.Paths.PosterCacheDir)
	if err != nil {
		return fmt.Errorf("poster cache: %w", err)
	}
	c.fetcher = fetcher

	c.manager = session.NewManager(c.sessionConfig(), c.dialRemote, c.devices())

	if !c.headless {
		tuiProg, err := ui.Run(c.controls, items)
		if err != nil {
			return fmt.Errorf("failed to start TUI: %w", err)
		}
		c.tuiProg = tuiProg

		go func() {
			if _, err := tuiProg.Run(); err != nil {
				log.Printf("TUI error: %v", err)
			}
			c.cancel()
		}()
		go c.statsLoop()
	}

	go c.handleControls()

	<-c.ctx.Done()
	return nil
}

// sessionConfig maps file configuration onto the session manager.
func (c *Companion) sessionConfig() session.Config {
	return session.Config{
		Remote: remote.Config{
			Endpoint: c.config.Session.Endpoint,
			APIKey:   c.config.Session.APIKey,
			Model:    c.config.Session.Model,
			Voice:    c.config.Session.Voice,
		},
		InputSampleRate:  c.config.Audio.InputSampleRate,
		OutputSampleRate: c.config.Audio.OutputSampleRate,
		MicFrameSize:     c.config.Audio.MicFrameSamples,
		CaptureInterval:  c.config.CaptureInterval(),
		DownscaleFactor:  c.config.Video.DownscaleFactor,
		JPEGQuality:      c.config.Video.JPEGQuality,
		OnStatus: func(s session.Status) {
			c.send(ui.StatusMsg{Status: s})
		},
		OnError: func(err error) {
			c.send(ui.ErrorMsg{Message: err.Error()})
		},
	}
}

func (c *Companion) dialRemote(ctx context.Context, cfg remote.Config) (session.Conn, error) {
	return remote.Dial(ctx, cfg)
}

func (c *Companion) devices() session.Devices {
	return session.Devices{
		NewOutput: func(sampleRate int) (playback.OutputContext, error) {
			return device.NewOutput(sampleRate, 1)
		},
		NewMicrophone: func(sampleRate, frameSize int) (device.Microphone, error) {
			return device.NewMicrophone(sampleRate, frameSize)
		},
	}
}

// handleControls services UI requests.
func (c *Companion) handleControls() {
	for {
		select {
		case item := <-c.controls.Connect:
			c.watch(item)

		case <-c.controls.Disconnect:
			c.manager.Disconnect()
			c.video.Clear()

		case req := <-c.controls.Describe:
			if err := c.store.UpdateDescription(c.ctx, req.ItemID, req.Description); err != nil {
				log.Printf("Update description for %s: %v", req.ItemID, err)
				break
			}
			items, err := c.store.List(c.ctx)
			if err != nil {
				log.Printf("Reload catalog: %v", err)
				break
			}
			c.send(ui.ItemsMsg{Items: items})

		case <-c.controls.Quit:
			c.cancel()
			return

		case <-c.ctx.Done():
			return
		}
	}
}

// watch switches the companion to a new item: any live session is torn
// down first, then the poster becomes the visual channel source.
func (c *Companion) watch(item catalog.Item) {
	c.manager.Disconnect()

	if url := poster.URLFor(item.MediaURL); url != "" {
		path, err := c.fetcher.Fetch(url)
		if err != nil {
			log.Printf("Poster fetch for %s: %v", item.ID, err)
			c.video.Clear()
		} else if err := c.video.Load(path); err != nil {
			log.Printf("Poster load for %s: %v", item.ID, err)
			c.video.Clear()
		}
	} else {
		c.video.Clear()
	}

	if err := c.manager.Connect(c.ctx, item, c.video); err != nil {
		log.Printf("Connect failed: %v", err)
		return
	}
	c.send(ui.WatchingMsg{ItemID: item.ID})
}

// statsLoop pushes pipeline counters to the TUI once a second.
func (c *Companion) statsLoop() {
	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.send(ui.StatsMsg{
				Playback: c.manager.PlaybackStats(),
				Frames:   c.manager.FrameStats(),
			})

		case <-c.ctx.Done():
			return
		}
	}
}

func (c *Companion) send(msg tea.Msg) {
	if c.tuiProg != nil {
		c.tuiProg.Send(msg)
	}
}

// Stop shuts the application down.
func (c *Companion) Stop() {
	c.cancel()

	if c.manager != nil {
		c.manager.Disconnect()
	}

	if c.store != nil {
		c.store.Close()
	}

	if c.tuiProg != nil {
		c.tuiProg.Quit()
	}
}
