package inits

import (
	"fmt"
	"time"

	"github.com/gocql/gocql"
	"github.com/scylladb/gocqlx/v2"
	"github.com/skif48/wellness-engine/app_config"
	"github.com/skif48/wellness-engine/graceful_shutdown"
)

func NewScyllaSession(ac *app_config.AppConfig) *gocqlx.Session {
	cluster := gocql.NewCluster(ac.ScyllaUrl)
	cluster.Consistency = gocql.Quorum
	cluster.Timeout = 5 * time.Second
	session, err := gocqlx.WrapSession(cluster.CreateSession())
	if err != nil {
		panic(err)
	}

	err = session.ExecStmt(fmt.Sprintf(
		"CREATE KEYSPACE IF NOT EXISTS %s WITH replication = {'class': 'SimpleStrategy', 'replication_factor': 1}",
		ac.ScyllaKeyspace,
	))
	if err != nil {
		panic(err)
	}
	graceful_shutdown.AddOutputShutdownFunc(session.Close)
	return &session
}
