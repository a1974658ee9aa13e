package events

import (
	"testing"

	"github.com/vladdudu12/wall-e-control-go/internal/models"
)

func TestBus_PublishReachesAllSubscribers(t *testing.T) {
	bus := NewBus()
	a := bus.Subscribe("a")
	b := bus.Subscribe("b")
	defer bus.Unsubscribe("a")
	defer bus.Unsubscribe("b")

	st := models.DefaultStatus()
	st.Mode = models.RobotExploring
	bus.Publish(st)

	for name, ch := range map[string]<-chan models.Status{"a": a, "b": b} {
		got := <-ch
		if got.Mode != models.RobotExploring {
			t.Errorf("subscriber %s got mode %q", name, got.Mode)
		}
	}
}

func TestBus_SlowSubscriberDoesNotBlockPublish(t *testing.T) {
	bus := NewBus()
	bus.Subscribe("slow")
	defer bus.Unsubscribe("slow")

	// Fill the buffer and keep publishing; Publish must never block.
	st := models.DefaultStatus()
	for i := 0; i < subBufferSize*3; i++ {
		bus.Publish(st)
	}
}

func TestBus_UnsubscribeClosesChannel(t *testing.T) {
	bus := NewBus()
	ch := bus.Subscribe("x")
	bus.Unsubscribe("x")

	if _, ok := <-ch; ok {
		t.Error("channel still open after Unsubscribe")
	}
	if bus.SubscriberCount() != 0 {
		t.Errorf("SubscriberCount = %d", bus.SubscriberCount())
	}
}
