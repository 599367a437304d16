package queue

import (
	amqp "github.com/rabbitmq/amqp091-go"
)

// amqpDelivery pairs a decoded job with the channel it must be settled on.
type amqpDelivery struct {
	job *Job
	tag uint64
	ch  *amqp.Channel
}

var _ Delivery = (*amqpDelivery)(nil)

func (d *amqpDelivery) Ack() error {
	return d.ch.Ack(d.tag, false)
}

func (d *amqpDelivery) Nack(requeue bool) error {
	return d.ch.Nack(d.tag, false, requeue)
}

func (d *amqpDelivery) Job() *Job {
	return d.job
}
