/*
Package redisstore provides a snapshot.NodeStore backed by a redis DB, so
consumers outside the training process can read a live copy of a model.

Nodes are stored encoded under the key "<prefix>:<node id>" and the ID of the
root node under "<prefix>:root".
*/
package redisstore

import (
	"context"
	"fmt"

	"github.com/pbanos/vfdt/snapshot"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gopkg.in/redis.v5"
)

var log = logrus.WithField("component", "redisstore")

const rootKey = "root"

/*
NodeEncodeDecoder is an interface for objects
that allow encoding nodes into slices of
bytes and decoding them back to nodes.
*/
type NodeEncodeDecoder interface {

	//Encode receives a *snapshot.Node
	// and returns a slice of bytes with the node
	//encoded or an error if the encoding could not
	//be performed for some reason.
	Encode(*snapshot.Node) ([]byte, error)

	//Decode receives a slice of bytes
	//and returns a *snapshot.Node decoded from the
	//slice of bytes or an error if the decoding
	//could not be performed for some reason.
	Decode([]byte) (*snapshot.Node, error)
}

type redisStore struct {
	rc      *redis.Client
	prefix  string
	nencdec NodeEncodeDecoder
}

//New builds a snapshot.NodeStore backed by a redis DB
func New(rc *redis.Client, prefix string, nencdec NodeEncodeDecoder) snapshot.NodeStore {
	return &redisStore{rc, prefix, nencdec}
}

func (rs *redisStore) Get(ctx context.Context, id string) (*snapshot.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := rs.rc.Get(rs.keyFor(id)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "retrieving node %q", id)
	}
	n, err := rs.nencdec.Decode(data)
	if err != nil {
		return nil, errors.Wrapf(err, "retrieving node %q: decoding %q", id, data)
	}
	return n, nil
}

func (rs *redisStore) Store(ctx context.Context, n *snapshot.Node) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	redisID := rs.keyFor(n.ID)
	data, err := rs.nencdec.Encode(n)
	if err != nil {
		return errors.Wrapf(err, "storing node %q: encoding node", redisID)
	}
	_, err = rs.rc.Set(redisID, data, 0).Result()
	if err != nil {
		return errors.Wrapf(err, "storing node %q in redis", redisID)
	}
	log.WithField("key", redisID).Debug("stored node")
	return nil
}

func (rs *redisStore) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	redisID := rs.keyFor(id)
	_, err := rs.rc.Del(redisID).Result()
	if err != nil {
		return errors.Wrapf(err, "deleting node %q from redis", redisID)
	}
	log.WithField("key", redisID).Debug("deleted node")
	return nil
}

func (rs *redisStore) Root(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	id, err := rs.rc.Get(rs.keyFor(rootKey)).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", errors.Wrap(err, "retrieving root node id")
	}
	return id, nil
}

func (rs *redisStore) SetRoot(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := rs.rc.Set(rs.keyFor(rootKey), id, 0).Result()
	if err != nil {
		return errors.Wrapf(err, "setting root node %q in redis", id)
	}
	log.WithField("root", id).Info("published snapshot")
	return nil
}

// Close leaves the redis client open: it belongs to the caller.
func (rs *redisStore) Close(ctx context.Context) error {
	return nil
}

func (rs *redisStore) keyFor(id string) string {
	return fmt.Sprintf("%s:%s", rs.prefix, id)
}
