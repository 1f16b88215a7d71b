package progress

// Sink receives every update a tracker emits, in emit order. A sink
// error propagates to the code issuing the update, so sinks that must
// not stall the operation should buffer internally.
type Sink interface {
	Publish(Update) error
}

// SinkFunc adapts a plain function to the Sink interface.
type SinkFunc func(Update) error

// Publish calls the wrapped function.
func (f SinkFunc) Publish(u Update) error {
	return f(u)
}

// ChannelSink forwards updates to a channel that the transport layer
// drains. Sends block when the channel is full, which preserves update
// ordering end to end.
type ChannelSink struct {
	ch chan<- Update
}

// NewChannelSink creates a sink writing to the given channel.
func NewChannelSink(ch chan<- Update) *ChannelSink {
	return &ChannelSink{ch: ch}
}

// Publish sends the update on the channel.
func (s *ChannelSink) Publish(u Update) error {
	s.ch <- u
	return nil
}
