// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/GermanBionicSystems/tof/tmf8x01"
)

const publishTimeout = 5 * time.Second

// Message is the JSON payload published for every sample.
type Message struct {
	SensorID     string    `json:"sensor_id"`
	Timestamp    time.Time `json:"timestamp"`
	DistanceMM   int       `json:"distance_mm"`
	Reliability  byte      `json:"reliability"`
	Status       byte      `json:"status"`
	ResultNumber byte      `json:"result_number"`
}

// publisher is the subset of mqtt.Client used.
type publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	Disconnect(quiesce uint)
}

// MQTT publishes samples to a broker.
type MQTT struct {
	c     publisher
	topic string
	id    string
}

// NewMQTT connects to broker, a URL like tcp://localhost:1883. topic may hold
// a %s verb replaced by the sensor ID.
func NewMQTT(ctx context.Context, broker, clientID, topic string, sensorID uint32) (*MQTT, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(broker)
	opts.SetClientID(clientID)
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(5 * time.Second)
	opts.SetKeepAlive(30 * time.Second)
	opts.SetOnConnectHandler(func(_ mqtt.Client) {
		logrus.WithField("broker", broker).Info("mqtt connected")
	})
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		logrus.WithError(err).Warn("mqtt connection lost")
	})
	c := mqtt.NewClient(opts)
	token := c.Connect()
	const poll = 200 * time.Millisecond
	for !token.WaitTimeout(poll) {
		if err := ctx.Err(); err != nil {
			c.Disconnect(0)
			return nil, err
		}
	}
	if err := token.Error(); err != nil {
		return nil, pkgerrors.Wrapf(err, "mqtt connect %s", broker)
	}
	return newMQTT(c, topic, sensorID), nil
}

func newMQTT(c publisher, topic string, sensorID uint32) *MQTT {
	id := SensorID(sensorID)
	if strings.Contains(topic, "%s") {
		topic = fmt.Sprintf(topic, id)
	}
	return &MQTT{c: c, topic: topic, id: id}
}

func (m *MQTT) Write(s tmf8x01.Sample) error {
	data, err := json.Marshal(Message{
		SensorID:     m.id,
		Timestamp:    s.Time,
		DistanceMM:   s.MM,
		Reliability:  s.Reliability,
		Status:       s.Status,
		ResultNumber: s.ResultNumber,
	})
	if err != nil {
		return pkgerrors.Wrap(err, "marshal sample")
	}
	token := m.c.Publish(m.topic, 1, false, data)
	if !token.WaitTimeout(publishTimeout) {
		return pkgerrors.Errorf("publish timeout for topic %s", m.topic)
	}
	if err := token.Error(); err != nil {
		return pkgerrors.Wrapf(err, "publish to %s", m.topic)
	}
	logrus.WithField("topic", m.topic).Debug("published sample")
	return nil
}

func (m *MQTT) Close() error {
	m.c.Disconnect(250)
	return nil
}
