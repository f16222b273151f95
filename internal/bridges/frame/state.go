package frame

import "github.com/nerrad567/gray-logic-frameart/internal/samsungtv/art"

// PlayerState is the media-player view of the TV.
type PlayerState string

const (
	// PlayerPlaying means art mode is on with the slideshow rotating.
	PlayerPlaying PlayerState = "playing"

	// PlayerOn means art mode is on with a fixed image.
	PlayerOn PlayerState = "on"

	// PlayerOff means the TV is reachable but not in art mode.
	PlayerOff PlayerState = "off"

	// PlayerUnavailable means the TV could not be reached.
	PlayerUnavailable PlayerState = "unavailable"
)

// Connection status strings.
const (
	ConnectionConnected    = "Connected"
	ConnectionDisconnected = "Disconnected"
)

// TVState is the published state of one TV. Nil fields were not reported
// by the TV on the last poll.
type TVState struct {
	Available        bool        `json:"available"`
	ArtMode          *bool       `json:"art_mode"`
	PlayerState      PlayerState `json:"player_state"`
	Brightness       *int        `json:"brightness"`
	ColorTemperature *int        `json:"color_temperature"`
	SlideshowStatus  string      `json:"slideshow_status,omitempty"`
	CurrentImage     string      `json:"current_image,omitempty"`
	ConnectionStatus string      `json:"connection_status"`
}

// Snapshot is the raw result of one poll.
type Snapshot struct {
	Alive            bool
	ArtMode          *bool
	Brightness       *int
	ColorTemperature *int
	Slideshow        *art.SlideshowStatus
	Artwork          *art.Artwork
}

// BuildState derives the published state from a poll.
func BuildState(s Snapshot) TVState {
	if !s.Alive {
		return TVState{
			PlayerState:      PlayerUnavailable,
			ConnectionStatus: ConnectionDisconnected,
		}
	}

	st := TVState{
		Available:        true,
		ArtMode:          s.ArtMode,
		Brightness:       s.Brightness,
		ColorTemperature: s.ColorTemperature,
		ConnectionStatus: ConnectionConnected,
	}
	if s.Slideshow != nil {
		st.SlideshowStatus = s.Slideshow.Value
	}
	if s.Artwork != nil {
		st.CurrentImage = s.Artwork.ContentID
	}
	st.PlayerState = playerState(st.ArtMode, s.Slideshow)
	return st
}

// withArtMode returns st with art mode replaced and the player state
// recomputed, keeping the last known slideshow setting.
func (st TVState) withArtMode(on bool) TVState {
	st.ArtMode = &on
	if !st.Available {
		return st
	}
	var slideshow *art.SlideshowStatus
	if st.SlideshowStatus != "" {
		slideshow = &art.SlideshowStatus{Value: st.SlideshowStatus}
	}
	st.PlayerState = playerState(st.ArtMode, slideshow)
	return st
}

func playerState(artMode *bool, slideshow *art.SlideshowStatus) PlayerState {
	if artMode == nil || !*artMode {
		return PlayerOff
	}
	if slideshow != nil && slideshow.Enabled() {
		return PlayerPlaying
	}
	return PlayerOn
}
