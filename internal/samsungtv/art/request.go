package art

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/nerrad567/gray-logic-frameart/internal/samsungtv"
)

// Request names understood by the art service.
const (
	RequestGetArtMode          = "get_artmode_status"
	RequestSetArtMode          = "set_artmode_status"
	RequestGetBrightness       = "get_brightness"
	RequestSetBrightness       = "set_brightness"
	RequestGetColorTemperature = "get_color_temperature"
	RequestSetColorTemperature = "set_color_temperature"
	RequestGetSlideshowStatus  = "get_slideshow_status"
	RequestGetCurrentArtwork   = "get_current_artwork"
	RequestGetAPIVersion       = "get_api_version"
)

// Sub-events carried inside d2d_service_message data.
const (
	SubEventError          = "error"
	SubEventArtModeChanged = "art_mode_changed"
	SubEventImageSelected  = "image_selected"
)

const artAppRequestEvent = "art_app_request"

// emitParams is the params object of an ms.channel.emit request.
type emitParams struct {
	Event string `json:"event"`
	To    string `json:"to"`
	Data  string `json:"data"`
}

// newRequest builds the emit command for one art request.
func newRequest(name, id string, fields map[string]any) (samsungtv.Request, error) {
	body := make(map[string]any, len(fields)+3)
	for k, v := range fields {
		body[k] = v
	}
	body["request"] = name
	body["id"] = id
	body["request_id"] = id

	data, err := json.Marshal(body)
	if err != nil {
		return samsungtv.Request{}, fmt.Errorf("encoding %s: %w", name, err)
	}

	return samsungtv.Request{
		Method: samsungtv.MethodChannelEmit,
		Params: emitParams{
			Event: artAppRequestEvent,
			To:    "host",
			Data:  string(data),
		},
	}, nil
}

// responseID returns the request id echoed in a response.
func responseID(data map[string]any) string {
	if id, ok := data["request_id"].(string); ok && id != "" {
		return id
	}
	if id, ok := data["id"].(string); ok {
		return id
	}
	return ""
}

// failedRequestID returns the id of the request an error sub-event refers
// to. request_data is usually a JSON string, sometimes an object.
func failedRequestID(data map[string]any) string {
	switch rd := data["request_data"].(type) {
	case map[string]any:
		return responseID(rd)
	case string:
		var obj map[string]any
		if json.Unmarshal([]byte(rd), &obj) == nil {
			return responseID(obj)
		}
	}
	return ""
}

// answers reports whether a response sub-event without an id can answer
// the named request: either the name itself or the name without its
// get_/set_ prefix.
func answers(subEvent, request string) bool {
	if subEvent == "" {
		return false
	}
	if subEvent == request {
		return true
	}
	bare := strings.TrimPrefix(strings.TrimPrefix(request, "get_"), "set_")
	return subEvent == bare
}

// intValue reads an integer that the TV may send as a string or a number.
func intValue(v any) (int, bool) {
	switch n := v.(type) {
	case float64:
		return int(n), true
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			f, ferr := strconv.ParseFloat(strings.TrimSpace(n), 64)
			if ferr != nil {
				return 0, false
			}
			return int(f), true
		}
		return i, true
	case json.Number:
		i, err := n.Int64()
		return int(i), err == nil
	}
	return 0, false
}

// stringValue reads a string field, formatting numbers.
func stringValue(v any) (string, bool) {
	switch s := v.(type) {
	case string:
		return s, true
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(s), true
	}
	return "", false
}
