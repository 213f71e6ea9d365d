package mediatex

import (
	"net/http"
	"regexp"

	"github.com/edaniels/golog"
	"github.com/google/uuid"
	"github.com/pion/mediadevices"
)

// A SourceConfig describes how a source fetches and prepares its frames.
// The zero value is usable.
type SourceConfig struct {
	// Name is used in logs. A random one is picked if empty.
	Name   string
	Logger golog.Logger
	// MaxTextureSize, if positive, downscales frames whose width or height
	// exceed it. AspectRatio always reports the native dimensions.
	MaxTextureSize int
	// FlipY flips frames vertically so row 0 is the bottom of the image,
	// matching GL's texture coordinate origin.
	FlipY bool
	// HTTPClient is used for http(s) URLs. Defaults to http.DefaultClient.
	HTTPClient *http.Client
}

func (cfg SourceConfig) withDefaults() SourceConfig {
	if cfg.Name == "" {
		cfg.Name = uuid.NewString()
	}
	if cfg.Logger == nil {
		cfg.Logger = Logger
	}
	cfg.Logger = cfg.Logger.With("source", cfg.Name)
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = http.DefaultClient
	}
	return cfg
}

// A DeviceConfig picks a capture device. With neither Label nor LabelPattern
// set, the best device fitting Constraints is used.
type DeviceConfig struct {
	Label        string
	LabelPattern *regexp.Regexp
	// Constraints defaults to DefaultConstraints when it has no video
	// constraints.
	Constraints mediadevices.MediaStreamConstraints
}

func (cfg DeviceConfig) withDefaults() DeviceConfig {
	if cfg.Constraints.Video == nil {
		cfg.Constraints = DefaultConstraints
	}
	return cfg
}
