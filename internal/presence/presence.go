// Package presence implements the presence cache of spec §4.9: a
// Redis-backed mirror of room membership plus a pub/sub fanout channel
// per canvas, grounded on the teacher's subscribeToRoom/HSET pattern in
// main.go and services/room_service.go. The in-process Room remains
// authoritative for pixels; this channel never carries pixel data.
package presence

import (
	"context"
	"fmt"
	"log"

	"github.com/redis/go-redis/v9"
)

// Notice is one join/leave fanout message (spec §4.9).
type Notice struct {
	CanvasID int    `json:"canvas_id"`
	RoomUID  uint8  `json:"room_uid"`
	Kind     string `json:"kind"`
	Name     string `json:"name,omitempty"`
}

// Presence mirrors room membership into Redis and fans out notices
// across processes. Every method is best-effort: a Redis outage
// degrades this to a no-op rather than affecting the paint protocol
// (spec §7).
type Presence struct {
	client *redis.Client
}

// New builds a client for addr without contacting Redis; connection
// failures surface on later calls, which log and continue.
func New(addr string) *Presence {
	return &Presence{client: redis.NewClient(&redis.Options{Addr: addr})}
}

// Close releases the underlying connection.
func (p *Presence) Close() error {
	if p == nil || p.client == nil {
		return nil
	}
	return p.client.Close()
}

func presenceKey(canvasID int) string {
	return fmt.Sprintf("presence:%d", canvasID)
}

func channelName(canvasID int) string {
	return fmt.Sprintf("presence-events:%d", canvasID)
}

// Join records roomUID/name under canvasID's presence hash and publishes
// a join notice.
func (p *Presence) Join(ctx context.Context, canvasID int, roomUID uint8, name string) {
	if p == nil {
		return
	}
	if err := p.client.HSet(ctx, presenceKey(canvasID), fmt.Sprint(roomUID), name).Err(); err != nil {
		log.Printf("presence: HSET failed: %v", err)
	}
	p.publish(ctx, canvasID, Notice{CanvasID: canvasID, RoomUID: roomUID, Kind: "join", Name: name})
}

// Leave removes roomUID from canvasID's presence hash and publishes a
// leave notice.
func (p *Presence) Leave(ctx context.Context, canvasID int, roomUID uint8) {
	if p == nil {
		return
	}
	if err := p.client.HDel(ctx, presenceKey(canvasID), fmt.Sprint(roomUID)).Err(); err != nil {
		log.Printf("presence: HDEL failed: %v", err)
	}
	p.publish(ctx, canvasID, Notice{CanvasID: canvasID, RoomUID: roomUID, Kind: "leave"})
}

func (p *Presence) publish(ctx context.Context, canvasID int, n Notice) {
	if err := p.client.Publish(ctx, channelName(canvasID), n.Kind+":"+fmt.Sprint(n.RoomUID)).Err(); err != nil {
		log.Printf("presence: publish failed: %v", err)
	}
}

// Subscribe mirrors inbound pub/sub notices for canvasID into onNotice
// until ctx is cancelled. Intended to run one goroutine per Active room,
// feeding the admin server's live feed (spec §4.9, §4.12).
func (p *Presence) Subscribe(ctx context.Context, canvasID int, onNotice func(kind string)) {
	if p == nil {
		return
	}
	sub := p.client.Subscribe(ctx, channelName(canvasID))
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if onNotice != nil {
				onNotice(msg.Payload)
			}
		}
	}
}

// Members returns the current room_uid -> display name mapping for
// canvasID, for an admin snapshot.
func (p *Presence) Members(ctx context.Context, canvasID int) (map[string]string, error) {
	if p == nil {
		return nil, nil
	}
	return p.client.HGetAll(ctx, presenceKey(canvasID)).Result()
}
