// board/service/broadcaster.go
package service

import "github.com/Ftotnem/LIVEBOARD/board/hub"

// Broadcaster fans events out to viewers. *hub.Hub implements it.
type Broadcaster interface {
	BroadcastAll(ev hub.Event) int
}

var _ Broadcaster = (*hub.Hub)(nil)
