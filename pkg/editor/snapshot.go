package editor

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/taigrr/panoedit/pkg/media"
	"github.com/taigrr/panoedit/pkg/projection"
	"github.com/taigrr/panoedit/pkg/walltrace"
)

// Snapshot is the persistent state of a session as plain data.
type Snapshot struct {
	projection.Geometry
	// Panorama is the panorama image reference, carried through unchanged.
	Panorama string             `json:"panorama,omitempty"`
	Media    []media.Object     `json:"media"`
	Layout2D walltrace.Polyline `json:"layout2D"`
}

// Snapshot returns the session state. The result shares nothing with the
// session.
func (s *Session) Snapshot() Snapshot {
	return Snapshot{
		Geometry: s.geometry,
		Panorama: s.panorama,
		Media:    s.registry.Objects(),
		Layout2D: s.walls.Polyline(),
	}
}

// Restore replaces the session state with snap. Gestures are cancelled and
// focus is cleared. The session is left unchanged on error.
func (s *Session) Restore(snap Snapshot) error {
	if err := snap.Geometry.Validate(); err != nil {
		return fmt.Errorf("restore: %w", err)
	}
	for i, o := range snap.Media {
		if err := o.Transform.Validate(); err != nil {
			return fmt.Errorf("restore media %d: %w", i, err)
		}
	}

	s.cancelGestures("restore")
	s.geometry = snap.Geometry
	s.panorama = snap.Panorama
	s.projector = s.cfg.Projector(snap.Geometry)
	s.walls = walltrace.NewSession(s.projector, s.cfg.WallConfig(), s.logger)
	s.walls.Load(snap.Layout2D)
	s.room = nil
	s.registry.Replace(snap.Media)
	s.log.Info("state restored", slog.Int("media", len(snap.Media)), slog.Int("walls", snap.Layout2D.Len()))
	return nil
}

// EncodeHash encodes snap as URL-safe base64 JSON, suitable for a URL
// fragment.
func EncodeHash(snap Snapshot) (string, error) {
	data, err := json.Marshal(snap)
	if err != nil {
		return "", fmt.Errorf("encode snapshot: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(data), nil
}

// DecodeHash is the inverse of EncodeHash.
func DecodeHash(hash string) (Snapshot, error) {
	data, err := base64.RawURLEncoding.DecodeString(hash)
	if err != nil {
		return Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	return snap, nil
}
