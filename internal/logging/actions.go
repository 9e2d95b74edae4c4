package logging

import (
	"fmt"
	"math/rand/v2"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

// Action names a user action worth recording.
type Action string

// Known viewer actions.
const (
	ActionThumbnailClick    Action = "thumbnail-link-click"
	ActionEnlargeClick      Action = "enlarge-link-click"
	ActionFileRoute         Action = "hash-load"
	ActionNextImage         Action = "next-image"
	ActionPrevImage         Action = "prev-image"
	ActionImageView         Action = "image-view"
	ActionClose             Action = "close"
	ActionHistoryNavigation Action = "history-navigation"
	ActionResize            Action = "resize"
	ActionEmbedIntent       Action = "embed-intent"
	ActionOptInDisable      Action = "optout-loggedin"
	ActionOptInEnable       Action = "optin-loggedin"
)

var actionMessages = map[Action]string{
	ActionThumbnailClick:    "User clicked on a thumbnail to open the viewer.",
	ActionEnlargeClick:      "User clicked on an enlarge link to open the viewer.",
	ActionFileRoute:         "User loaded an image by going to its route.",
	ActionNextImage:         "User went to the next image.",
	ActionPrevImage:         "User went to the previous image.",
	ActionImageView:         "An image was shown in the viewer.",
	ActionClose:             "User closed the viewer.",
	ActionHistoryNavigation: "User navigated with the browser history.",
	ActionResize:            "User resized the viewer.",
	ActionEmbedIntent:       "User requested embed code.",
	ActionOptInDisable:      "User disabled the viewer.",
	ActionOptInEnable:       "User enabled the viewer.",
}

// DefaultSamplingKey is the sampling map entry used for actions without one.
const DefaultSamplingKey = "default"

// SamplingConfig is the YAML shape of the action sampling file:
//
//	sampling:
//	  default: 1
//	  image-view: 100
type SamplingConfig struct {
	Sampling map[string]int `yaml:"sampling"`
}

// ActionLogger records viewer actions with per-action sampling.
// A factor of N logs roughly one in N actions; a factor below 1 disables
// the action entirely.
type ActionLogger struct {
	mu       sync.Mutex
	sampling map[string]int
	counts   map[Action]int64
	random   func() float64
	logger   Logger
}

// NewActionLogger creates an action logger. A nil sampling map logs every action.
func NewActionLogger(sampling map[string]int) *ActionLogger {
	if sampling == nil {
		sampling = map[string]int{DefaultSamplingKey: 1}
	}
	return &ActionLogger{
		sampling: sampling,
		counts:   make(map[Action]int64),
		random:   rand.Float64,
		logger:   For("action"),
	}
}

// LoadActionLogger reads sampling factors from a YAML file.
// An empty path yields a logger that records everything.
func LoadActionLogger(path string) (*ActionLogger, error) {
	if path == "" {
		return NewActionLogger(nil), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read action sampling file: %w", err)
	}

	var cfg SamplingConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse action sampling file: %w", err)
	}

	return NewActionLogger(cfg.Sampling), nil
}

// SamplingFactor returns the factor for an action, falling back to the default entry.
func (a *ActionLogger) SamplingFactor(action Action) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.samplingFactorLocked(action)
}

func (a *ActionLogger) samplingFactorLocked(action Action) int {
	if factor, ok := a.sampling[string(action)]; ok {
		return factor
	}
	if factor, ok := a.sampling[DefaultSamplingKey]; ok {
		return factor
	}
	return 1
}

// isInSample decides whether one occurrence of the action is recorded.
func (a *ActionLogger) isInSample(action Action) bool {
	factor := a.samplingFactorLocked(action)
	if factor < 1 {
		return false
	}
	return int(a.random()*float64(factor)) == 0
}

// Log records an action if it falls into the sample. It reports whether it did.
func (a *ActionLogger) Log(action Action) bool {
	a.mu.Lock()
	if !a.isInSample(action) {
		a.mu.Unlock()
		return false
	}
	a.counts[action]++
	a.mu.Unlock()

	message, ok := actionMessages[action]
	if !ok {
		message = "Unknown action " + string(action) + ", help!"
	}
	a.logger.Info("%s: %s", action, message)
	return true
}

// Counts returns how many occurrences of each action were recorded.
func (a *ActionLogger) Counts() map[Action]int64 {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make(map[Action]int64, len(a.counts))
	for k, v := range a.counts {
		out[k] = v
	}
	return out
}
