package mq

import (
	"github.com/IBM/sarama"
	"github.com/sirupsen/logrus"

	"github.com/Josephquito/back-streaming/internal/config"
)

var KafkaProducer sarama.SyncProducer

func InitKafka(cfg *config.KafkaConfig, log *logrus.Logger) sarama.SyncProducer {
	kafkaConfig := sarama.NewConfig()
	kafkaConfig.Producer.RequiredAcks = sarama.WaitForAll
	kafkaConfig.Producer.Retry.Max = 3
	kafkaConfig.Producer.Return.Successes = true

	producer, err := sarama.NewSyncProducer(cfg.Brokers, kafkaConfig)
	if err != nil {
		log.Fatalf("error creando el productor de Kafka: %v", err)
	}

	KafkaProducer = producer
	log.Info("productor de Kafka creado")
	return producer
}

func SendMessage(topic, key, value string) error {
	msg := &sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder(key),
		Value: sarama.StringEncoder(value),
	}

	_, _, err := KafkaProducer.SendMessage(msg)
	return err
}

func CloseKafka() {
	if KafkaProducer != nil {
		KafkaProducer.Close()
	}
}
