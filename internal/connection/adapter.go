package connection

import (
	"fmt"
	"strconv"
	"strings"
)

// AdapterID maps an adapter name such as "hci1" to its HCI device index.
// An empty name selects the first adapter.
func AdapterID(adapter string) (int, error) {
	name := strings.TrimSpace(adapter)
	if name == "" {
		return 0, nil
	}

	if !strings.HasPrefix(name, "hci") {
		return 0, fmt.Errorf("invalid adapter %q (expected hciN, e.g. hci0)", adapter)
	}
	id, err := strconv.ParseUint(strings.TrimPrefix(name, "hci"), 10, 16)
	if err != nil {
		return 0, fmt.Errorf("invalid adapter %q (expected hciN, e.g. hci0)", adapter)
	}
	return int(id), nil
}
