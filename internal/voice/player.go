package voice

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"time"

	oto "github.com/hajimehoshi/oto/v2"
)

// Player renders a decoded clip on an output device. Play blocks until
// the clip finishes or ctx is cancelled.
type Player interface {
	Play(ctx context.Context, clip Clip) error
}

// DevicePlayer plays clips through the system audio device. The device
// context is created on first use and its sample rate is fixed from the
// first clip; the synthesis service renders every clip the same way.
type DevicePlayer struct {
	mu     sync.Mutex
	otoCtx *oto.Context
	rate   int
}

func NewDevicePlayer() *DevicePlayer {
	return &DevicePlayer{}
}

func (d *DevicePlayer) Play(ctx context.Context, clip Clip) error {
	if len(clip.Data) == 0 {
		return nil
	}
	otoCtx, err := d.context(clip)
	if err != nil {
		return err
	}

	p := otoCtx.NewPlayer(bytes.NewReader(clip.Data))
	defer p.Close()
	p.Play()

	ticker := time.NewTicker(20 * time.Millisecond)
	defer ticker.Stop()
	for p.IsPlaying() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return nil
}

func (d *DevicePlayer) context(clip Clip) (*oto.Context, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.otoCtx != nil {
		if clip.SampleRate != d.rate {
			return nil, fmt.Errorf("audio device opened at %d Hz, clip is %d Hz", d.rate, clip.SampleRate)
		}
		return d.otoCtx, nil
	}
	otoCtx, ready, err := oto.NewContext(clip.SampleRate, clip.Channels, 2)
	if err != nil {
		return nil, fmt.Errorf("open audio device: %w", err)
	}
	<-ready
	d.otoCtx = otoCtx
	d.rate = clip.SampleRate
	return otoCtx, nil
}
