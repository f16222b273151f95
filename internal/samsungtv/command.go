package samsungtv

import "time"

// Command is an outbound unit handed to the dispatcher.
//
// The set of implementations is closed: Request, RawCommand, Sleep and
// Batch. Dispatch code switches over them exhaustively.
type Command interface {
	command()
}

// Request is a structured method call, encoded as
// {"method": Method, "params": Params}.
type Request struct {
	Method string
	Params any
}

// RawCommand is an arbitrary JSON object sent verbatim.
type RawCommand map[string]any

// Sleep pauses the dispatcher for Duration without touching the network.
type Sleep struct {
	Duration time.Duration
}

// Batch is a list of commands passed where one command is expected.
// SendCommand accepts it for compatibility and forwards it to SendCommands.
type Batch []Command

func (Request) command()    {}
func (RawCommand) command() {}
func (Sleep) command()      {}
func (Batch) command()      {}

// Remote control constants for the samsung.remote.control channel.
const (
	MethodRemoteControl = "ms.remote.control"
	MethodChannelEmit   = "ms.channel.emit"
)

// RemoteKeyParams is the params object of a key press.
type RemoteKeyParams struct {
	Cmd          string `json:"Cmd"`
	DataOfCmd    string `json:"DataOfCmd"`
	Option       string `json:"Option"`
	TypeOfRemote string `json:"TypeOfRemote"`
}

// ClickKey returns a key press request, e.g. ClickKey("KEY_POWER").
func ClickKey(key string) Request {
	return keyRequest("Click", key)
}

// HoldKey returns a press, a sleep for d and a release of key.
func HoldKey(key string, d time.Duration) []Command {
	return []Command{keyRequest("Press", key), Sleep{Duration: d}, keyRequest("Release", key)}
}

func keyRequest(cmd, key string) Request {
	return Request{
		Method: MethodRemoteControl,
		Params: RemoteKeyParams{
			Cmd:          cmd,
			DataOfCmd:    key,
			Option:       "false",
			TypeOfRemote: "SendRemoteKey",
		},
	}
}
