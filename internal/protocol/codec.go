package protocol

import (
	"errors"
	"fmt"

	"github.com/bytedance/sonic"
)

// ErrUnknownCommand is returned when an inbound message carries a command
// outside the widget→host vocabulary.
var ErrUnknownCommand = errors.New("unknown protocol command")

type envelope struct {
	Command string `json:"command"`
}

// Encode serializes an outbound message.
func Encode(msg interface{}) ([]byte, error) {
	data, err := sonic.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("encode message: %w", err)
	}
	return data, nil
}

// Decode parses an inbound widget or shell message into its concrete type,
// selected by the command discriminator.
func Decode(data []byte) (interface{}, error) {
	var env envelope
	if err := sonic.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}

	var msg interface{}
	switch env.Command {
	case CmdReady:
		msg = &Ready{}
	case CmdSaveOptions:
		msg = &SaveOptions{}
	case CmdInfo:
		msg = &Info{}
	case CmdError:
		msg = &Error{}
	case CmdEdit:
		msg = &Edit{}
	case CmdResetConfig:
		msg = &ResetConfig{}
	case CmdSave:
		msg = &Save{}
	case CmdUpload:
		msg = &Upload{}
	case CmdOpenLink:
		msg = &OpenLink{}
	case CmdViewState:
		msg = &ViewState{}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCommand, env.Command)
	}

	if err := sonic.Unmarshal(data, msg); err != nil {
		return nil, fmt.Errorf("decode %s: %w", env.Command, err)
	}
	return msg, nil
}
