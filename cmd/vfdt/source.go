package main

import (
	"context"
	"fmt"
	"os"

	"github.com/pbanos/vfdt/dataset"
	"github.com/pbanos/vfdt/dataset/csv"
	"github.com/pbanos/vfdt/dataset/mongo"
	"github.com/pbanos/vfdt/dataset/sql"
	"github.com/pbanos/vfdt/feature"
	"github.com/pbanos/vfdt/snapshot"
	"github.com/pbanos/vfdt/snapshot/json"
	"github.com/pbanos/vfdt/snapshot/redisstore"
	"github.com/spf13/cobra"
	"gopkg.in/mgo.v2/bson"
	"gopkg.in/redis.v5"

	// SQL drivers for the --driver flag
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// streamConfig holds the flags selecting a stream of examples: a CSV file
// or STDIN, the results of a query on a SQL database or the documents of a
// MongoDB collection.
type streamConfig struct {
	input           string
	driver          string
	dsn             string
	query           string
	mongoURL        string
	mongoCollection string
	mongoQuery      string
}

func (sc *streamConfig) addFlags(cmd *cobra.Command, purpose string) {
	cmd.Flags().StringVarP(&(sc.input), "input", "i", "", fmt.Sprintf("path to a CSV file with the examples %s (defaults to STDIN)", purpose))
	cmd.Flags().StringVar(&(sc.driver), "driver", "sqlite3", "SQL driver used to read examples when a DSN is given: sqlite3 or postgres")
	cmd.Flags().StringVar(&(sc.dsn), "dsn", "", fmt.Sprintf("data source name of a SQL database with the examples %s, instead of a CSV input", purpose))
	cmd.Flags().StringVar(&(sc.query), "query", "", "query whose results are the examples, with a column per feature named after it and optionally one for the label (required with a DSN)")
	cmd.Flags().StringVar(&(sc.mongoURL), "mongo-url", "", fmt.Sprintf("URL of a MongoDB database with the examples %s, instead of a CSV input", purpose))
	cmd.Flags().StringVar(&(sc.mongoCollection), "mongo-collection", mongo.DefaultCollection, "collection with the examples, a document per example with a field per feature")
	cmd.Flags().StringVar(&(sc.mongoQuery), "mongo-query", "{}", "JSON query selecting the documents of the collection")
}

func (sc *streamConfig) Validate() error {
	if sc.mongoURL != "" {
		if sc.input != "" || sc.dsn != "" {
			return fmt.Errorf("cannot set mongo-url along input or dsn flags")
		}
		_, err := sc.mongoFilter()
		return err
	}
	if sc.dsn == "" {
		return nil
	}
	if sc.input != "" {
		return fmt.Errorf("cannot set both input and dsn flags at the same time")
	}
	if sc.query == "" {
		return fmt.Errorf("required query flag was not set along dsn")
	}
	switch sc.driver {
	case "sqlite3", "postgres":
		return nil
	}
	return fmt.Errorf("unsupported SQL driver %q", sc.driver)
}

func (sc *streamConfig) mongoFilter() (bson.M, error) {
	filter := bson.M{}
	if err := bson.UnmarshalJSON([]byte(sc.mongoQuery), &filter); err != nil {
		return nil, fmt.Errorf("parsing mongo-query: %v", err)
	}
	return filter, nil
}

func (sc *streamConfig) open(ctx context.Context, schema *feature.Schema) (dataset.Stream, error) {
	if sc.mongoURL != "" {
		log.WithField("collection", sc.mongoCollection).Debug("opening MongoDB stream")
		filter, err := sc.mongoFilter()
		if err != nil {
			return nil, err
		}
		return mongo.Dial(sc.mongoURL, sc.mongoCollection, schema, filter)
	}
	if sc.dsn != "" {
		log.WithField("driver", sc.driver).Debug("opening SQL stream")
		return sql.Open(ctx, sc.driver, sc.dsn, schema, sc.query)
	}
	if sc.input == "" {
		log.Debug("reading examples from STDIN")
	} else {
		log.WithField("input", sc.input).Debug("opening CSV stream")
	}
	return csv.OpenFile(sc.input, schema)
}

// redisConfig holds the flags for the redis DB where models are mirrored.
type redisConfig struct {
	addr     string
	password string
	db       int
	prefix   string
}

func (rc *redisConfig) addFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&(rc.addr), "redis-addr", "", "address (host:port) of a redis server holding the model")
	cmd.Flags().StringVar(&(rc.password), "redis-password", "", "password of the redis server")
	cmd.Flags().IntVar(&(rc.db), "redis-db", 0, "number of the redis DB holding the model")
	cmd.Flags().StringVar(&(rc.prefix), "redis-prefix", "vfdt", "prefix of the redis keys of the model")
}

func (rc *redisConfig) enabled() bool {
	return rc.addr != ""
}

func (rc *redisConfig) nodeStore(schema *feature.Schema) (snapshot.NodeStore, *redis.Client) {
	client := redis.NewClient(&redis.Options{Addr: rc.addr, Password: rc.password, DB: rc.db})
	return redisstore.New(client, rc.prefix, json.NewEncodeDecoder(schema)), client
}

// snapshotConfig holds the flags selecting a model to load: a JSON file,
// or the model mirrored on a redis DB.
type snapshotConfig struct {
	treeInput string
	redis     redisConfig
	client    *redis.Client
}

func (sc *snapshotConfig) addFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&(sc.treeInput), "tree", "t", "", "path to a file from which the tree will be read and parsed as JSON")
	sc.redis.addFlags(cmd)
}

func (sc *snapshotConfig) Validate() error {
	if sc.treeInput == "" && !sc.redis.enabled() {
		return fmt.Errorf("either tree or redis-addr flag must be set")
	}
	if sc.treeInput != "" && sc.redis.enabled() {
		return fmt.Errorf("cannot set both tree and redis-addr flags at the same time")
	}
	return nil
}

func (sc *snapshotConfig) load(ctx context.Context, schema *feature.Schema) (*snapshot.Snapshot, error) {
	if sc.redis.enabled() {
		log.WithField("redis", sc.redis.addr).Debug("opening tree on redis")
		var ns snapshot.NodeStore
		ns, sc.client = sc.redis.nodeStore(schema)
		s, err := snapshot.Open(ctx, ns, schema)
		if err != nil {
			return nil, fmt.Errorf("opening tree on redis %s: %v", sc.redis.addr, err)
		}
		return s, nil
	}
	f, err := os.Open(sc.treeInput)
	if err != nil {
		return nil, fmt.Errorf("reading tree in JSON from %s: %v", sc.treeInput, err)
	}
	defer f.Close()
	s, err := json.Read(ctx, snapshot.NewMemoryNodeStore(), schema, json.NewEncodeDecoder(schema), f)
	if err != nil {
		return nil, fmt.Errorf("parsing tree in JSON from %s: %v", sc.treeInput, err)
	}
	return s, nil
}

// Close closes the connection to redis, if any
func (sc *snapshotConfig) Close() error {
	if sc.client == nil {
		return nil
	}
	return sc.client.Close()
}
