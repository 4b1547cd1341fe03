// internal/pkg/config/config_test.go
package config

import (
	"strings"
	"testing"
)

func TestMysqlDSN(t *testing.T) {
	cfg := MysqlConfig{Addr: "db:3306", User: "root", Password: "secret", Database: "minimall"}
	dsn := cfg.DSN()

	for _, want := range []string{"root:secret@tcp(db:3306)/minimall", "parseTime=true"} {
		if !strings.Contains(dsn, want) {
			t.Errorf("dsn %q does not contain %q", dsn, want)
		}
	}
}

func TestKafkaBrokerList(t *testing.T) {
	cfg := KafkaConfig{Brokers: "k1:9092,k2:9092"}
	brokers := cfg.BrokerList()
	if len(brokers) != 2 || brokers[0] != "k1:9092" || brokers[1] != "k2:9092" {
		t.Fatalf("brokers = %v", brokers)
	}
}

func TestDefaultsAreComplete(t *testing.T) {
	cfg := defaults()
	if cfg.App.EventTopic == "" || cfg.App.DefaultUserID == "" {
		t.Fatal("app defaults must be populated")
	}
	if cfg.Infra.Kafka.Brokers == "" || cfg.Infra.Mysql.Addr == "" {
		t.Fatal("infra defaults must be populated")
	}
}
