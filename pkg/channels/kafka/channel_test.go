package kafka

import (
	"testing"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/stretchr/testify/assert"
)

func TestParseBrokers(t *testing.T) {
	tests := []struct {
		raw  string
		want []string
	}{
		{"", []string{}},
		{"localhost:9092", []string{"localhost:9092"}},
		{" kafka-1:9092, ,kafka-2:9092 ", []string{"kafka-1:9092", "kafka-2:9092"}},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseBrokers(tt.raw), tt.raw)
	}
}

func TestCreateChannel_NoBrokers(t *testing.T) {
	_, _, err := CreateChannel(watermill.NopLogger{}, nil, "atelier-api")
	assert.ErrorIs(t, err, ErrNoBrokers)
}
