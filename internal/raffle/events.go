package raffle

import "raffle/internal/models"

// Event is one server-sent notification: either a forwarded draw-engine
// event or a full dashboard state snapshot.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// State is the dashboard snapshot the presentation layer renders from.
type State struct {
	Weeks        []models.WeekRecord `json:"weeks"`
	Winners      []models.Winner     `json:"winners"`
	ActiveWeek   *int                `json:"activeWeek,omitempty"`
	RemoteConfig bool                `json:"remoteConfig"`
}

// State assembles the current snapshot.
func (s *Service) State() State {
	st := State{
		Weeks:        s.Weeks(),
		Winners:      s.Winners(),
		RemoteConfig: s.dates.Available(),
	}
	if session := s.ActiveSession(); session != nil {
		week := session.Week()
		st.ActiveWeek = &week
	}
	return st
}

// Client is one subscriber to the event stream. Slow clients drop events
// rather than block the draw.
type Client struct {
	ch chan Event
}

// Chan returns the client's receive channel. It closes on unregister.
func (c *Client) Chan() <-chan Event {
	return c.ch
}

// RegisterClient subscribes a new client and primes it with current state.
func (s *Service) RegisterClient() *Client {
	client := &Client{ch: make(chan Event, 16)}
	client.ch <- Event{Type: "state", Data: s.State()}

	s.clientsMu.Lock()
	s.clients[client] = struct{}{}
	s.clientsMu.Unlock()
	return client
}

// UnregisterClient removes the client and closes its channel.
func (s *Service) UnregisterClient(c *Client) {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	if _, ok := s.clients[c]; ok {
		delete(s.clients, c)
		close(c.ch)
	}
}

func (s *Service) broadcast(evt Event) {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	for c := range s.clients {
		select {
		case c.ch <- evt:
		default:
		}
	}
}
