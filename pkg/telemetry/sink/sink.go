// Package sink opens telemetry transports by URL.
//
//	mqtt://host:port/prefix   publish to <prefix><board>/events
//	ws://host/path            send binary websocket messages
//	file:///path, -           length-prefixed packets to a file or stdout
package sink

import (
	"context"
	"io"
	"net/url"
	"os"

	"github.com/pkg/errors"

	"github.com/robotalks/mcuasync/pkg/telemetry"
	"github.com/robotalks/mcuasync/pkg/telemetry/mqtt"
	"github.com/robotalks/mcuasync/pkg/telemetry/stream"
	"github.com/robotalks/mcuasync/pkg/telemetry/websocket"
)

// ErrUnsupportedScheme is returned for URLs no transport handles.
var ErrUnsupportedScheme = errors.New("unsupported telemetry scheme")

// Open opens a writer for board. An empty URL yields telemetry.Discard.
func Open(rawURL, board string) (telemetry.PacketWriter, error) {
	if rawURL == "" {
		return telemetry.Discard, nil
	}
	if rawURL == "-" {
		return stream.NewWriter(nopCloser{os.Stdout}), nil
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, errors.Wrapf(err, "parse telemetry url %q", rawURL)
	}
	switch u.Scheme {
	case "mqtt", "tcp", "ssl":
		c, err := mqtt.Connect(rawURL)
		if err != nil {
			return nil, err
		}
		return mqtt.NewWriter(c, board), nil
	case "ws", "wss":
		rw, err := websocket.Dial(rawURL)
		if err != nil {
			return nil, err
		}
		return rw, nil
	case "file":
		f, err := os.OpenFile(u.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, errors.Wrap(err, "open telemetry file")
		}
		return stream.NewWriter(f), nil
	}
	return nil, errors.Wrapf(ErrUnsupportedScheme, "%q", u.Scheme)
}

// OpenReader opens a reader. For MQTT it receives events of all boards.
func OpenReader(ctx context.Context, rawURL string) (telemetry.PacketReader, io.Closer, error) {
	if rawURL == "-" {
		return stream.NewReader(os.Stdin), nopCloser{}, nil
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "parse telemetry url %q", rawURL)
	}
	switch u.Scheme {
	case "mqtt", "tcp", "ssl":
		c, err := mqtt.Connect(rawURL)
		if err != nil {
			return nil, nil, err
		}
		r, err := mqtt.NewReader(ctx, c, mqtt.EventsTopic("+"))
		if err != nil {
			c.Close()
			return nil, nil, err
		}
		return r, c, nil
	case "ws", "wss":
		rw, err := websocket.Dial(rawURL)
		if err != nil {
			return nil, nil, err
		}
		return rw, rw, nil
	case "file", "":
		f, err := os.Open(u.Path)
		if err != nil {
			return nil, nil, errors.Wrap(err, "open telemetry file")
		}
		return stream.NewReader(f), f, nil
	}
	return nil, nil, errors.Wrapf(ErrUnsupportedScheme, "%q", u.Scheme)
}

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }
