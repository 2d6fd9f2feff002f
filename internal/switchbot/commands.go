package switchbot

import (
	"fmt"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Attribute handles written by the commands
const (
	// BotHandle is the value handle of the bot control characteristic
	BotHandle uint16 = 0x16

	// CurtainHandle is the value handle of the curtain control characteristic
	CurtainHandle uint16 = 0x0D
)

// Command is a fixed GATT write: a payload for an attribute handle.
type Command struct {
	Name    string
	Handle  uint16
	Payload []byte
}

// PayloadHex returns the payload as space-separated uppercase hex bytes, e.g. "57 01 00"
func (c Command) PayloadHex() string {
	return fmt.Sprintf("% X", c.Payload)
}

func (c Command) clone() Command {
	c.Payload = append([]byte(nil), c.Payload...)
	return c
}

// table holds every known command in canonical order. It is populated once in init and only read afterwards.
var table = orderedmap.New[string, Command]()

func init() {
	// Vendor opcodes, sent verbatim
	for _, c := range []Command{
		{Name: "press", Handle: BotHandle, Payload: []byte{0x57, 0x01, 0x00}},
		{Name: "on", Handle: BotHandle, Payload: []byte{0x57, 0x01, 0x01}},
		{Name: "off", Handle: BotHandle, Payload: []byte{0x57, 0x01, 0x02}},
		{Name: "open", Handle: CurtainHandle, Payload: []byte{0x57, 0x0F, 0x45, 0x01, 0x05, 0xFF, 0x00}},
		{Name: "close", Handle: CurtainHandle, Payload: []byte{0x57, 0x0F, 0x45, 0x01, 0x05, 0xFF, 0x64}},
		{Name: "pause", Handle: CurtainHandle, Payload: []byte{0x57, 0x0F, 0x45, 0x01, 0x00, 0xFF}},
	} {
		table.Set(c.Name, c)
	}
}

// Lookup returns the command registered under name.
// Names are matched exactly; an unknown name yields an *UnknownCommandError.
func Lookup(name string) (Command, error) {
	c, ok := table.Get(name)
	if !ok {
		return Command{}, &UnknownCommandError{Name: name}
	}
	return c.clone(), nil
}

// Commands returns all commands in canonical order
func Commands() []Command {
	result := make([]Command, 0, table.Len())
	for pair := table.Oldest(); pair != nil; pair = pair.Next() {
		result = append(result, pair.Value.clone())
	}
	return result
}

// Names returns all command names in canonical order
func Names() []string {
	names := make([]string, 0, table.Len())
	for pair := table.Oldest(); pair != nil; pair = pair.Next() {
		names = append(names, pair.Key)
	}
	return names
}
