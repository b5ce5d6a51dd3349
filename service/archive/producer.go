package archive

import (
	"github.com/Shopify/sarama"
	"github.com/pkg/errors"

	"GateLink/logger"
)

// Producer hands accepted message envelopes to the external persistence
// pipeline over Kafka. The gateway itself never stores messages; if the
// producer is down the frames are still delivered to connected sockets and
// only the archive copy is lost.
type Producer struct {
	prod  sarama.AsyncProducer
	topic string
}

func NewProducer(brokers []string, topic string) (*Producer, error) {
	cfg := sarama.NewConfig()
	cfg.Producer.Return.Successes = false
	cfg.Producer.Return.Errors = true
	cfg.Producer.RequiredAcks = sarama.WaitForLocal

	prod, err := sarama.NewAsyncProducer(brokers, cfg)
	if err != nil {
		return nil, errors.Wrap(err, "kafka async producer")
	}

	p := &Producer{prod: prod, topic: topic}
	go func() {
		for err := range prod.Errors() {
			logger.Warnf("[archive] produce failed topic=%s: %v", err.Msg.Topic, err.Err)
		}
	}()
	return p, nil
}

// Archive enqueues one envelope keyed by room so per-room ordering survives
// partitioning downstream. Non-blocking from the caller's point of view.
func (p *Producer) Archive(roomID string, payload []byte) {
	p.prod.Input() <- &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(roomID),
		Value: sarama.ByteEncoder(payload),
	}
}

func (p *Producer) Close() error {
	return p.prod.Close()
}
