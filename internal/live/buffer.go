package live

import "cryptopulse/internal/domain"

// DefaultBufferCap is how many of the most recent points a client keeps.
const DefaultBufferCap = 35

// Buffer is a FIFO window over the most recent points. It is not safe for
// concurrent use; Client guards it.
type Buffer struct {
	cap    int
	points []domain.SentimentPoint
}

func NewBuffer(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = DefaultBufferCap
	}
	return &Buffer{cap: capacity, points: make([]domain.SentimentPoint, 0, capacity)}
}

// Append adds p and evicts from the front once the cap is exceeded. It
// returns the number of evicted points.
func (b *Buffer) Append(p domain.SentimentPoint) int {
	b.points = append(b.points, p)
	over := len(b.points) - b.cap
	if over <= 0 {
		return 0
	}
	copy(b.points, b.points[over:])
	for i := len(b.points) - over; i < len(b.points); i++ {
		b.points[i] = domain.SentimentPoint{}
	}
	b.points = b.points[:len(b.points)-over]
	return over
}

func (b *Buffer) Len() int { return len(b.points) }

func (b *Buffer) Cap() int { return b.cap }

// Snapshot returns deep copies of the buffered points, oldest first.
func (b *Buffer) Snapshot() []domain.SentimentPoint {
	out := make([]domain.SentimentPoint, len(b.points))
	for i, p := range b.points {
		out[i] = p.Clone()
	}
	return out
}

func (b *Buffer) Reset() {
	b.points = b.points[:0]
}
