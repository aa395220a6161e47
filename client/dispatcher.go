package client

import "encoding/json"

// Dispatcher routes decoded socket frames to registered callbacks.
// Callbacks run on the read loop goroutine; keep them short. Register
// all callbacks before Connect: the setters are not synchronized with
// the read loop, so registering after it starts is a data race.
type Dispatcher struct {
	onMessage    func(MessageEvent)
	onFile       func(FileEvent)
	onPeerJoined func(PeerEvent)
	onPeerLeft   func(PeerEvent)
	onState      func(StateEvent)
	onError      func(error)
}

func (d *Dispatcher) SetOnMessage(fn func(MessageEvent))   { d.onMessage = fn }
func (d *Dispatcher) SetOnFile(fn func(FileEvent))         { d.onFile = fn }
func (d *Dispatcher) SetOnPeerJoined(fn func(PeerEvent))   { d.onPeerJoined = fn }
func (d *Dispatcher) SetOnPeerLeft(fn func(PeerEvent))     { d.onPeerLeft = fn }
func (d *Dispatcher) SetOnStateChange(fn func(StateEvent)) { d.onState = fn }
func (d *Dispatcher) SetOnError(fn func(error))            { d.onError = fn }

func (d *Dispatcher) dispatch(env envelope) {
	switch env.Type {
	case typeChat:
		if d.onMessage == nil {
			return
		}
		var p chatPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			d.fireError(err)
			return
		}
		d.onMessage(MessageEvent{ID: p.ID, Room: p.Room, Sender: p.Sender, Text: p.Message, TS: p.TSUnix})
	case typeFileShared:
		if d.onFile == nil {
			return
		}
		var p filePayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			d.fireError(err)
			return
		}
		d.onFile(FileEvent{Room: p.Room, FileID: p.FileID, Filename: p.Filename, Sender: p.Sender, TS: p.TSUnix})
	case typePeerJoined:
		if d.onPeerJoined == nil {
			return
		}
		var p peerPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			d.fireError(err)
			return
		}
		d.onPeerJoined(PeerEvent{Room: p.Room, Name: p.Name})
	case typePeerLeft:
		if d.onPeerLeft == nil {
			return
		}
		var p peerPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			d.fireError(err)
			return
		}
		d.onPeerLeft(PeerEvent{Room: p.Room, Name: p.Name})
	case typeError:
		var p errorPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			d.fireError(err)
			return
		}
		d.fireError(&ServerError{Code: p.Code, Msg: p.Msg, Ref: p.Ref})
	}
}

func (d *Dispatcher) fireState(ev StateEvent) {
	if d.onState != nil {
		d.onState(ev)
	}
}

func (d *Dispatcher) fireError(err error) {
	if d.onError != nil && err != nil {
		d.onError(err)
	}
}
