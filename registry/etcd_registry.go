// Package registry provides the etcd-based implementation of the Registry
// interface: a distributed phonebook mapping a cluster name to the set of
// key-value database endpoints backing it.
//
//	Key:   /kvnode/{clusterName}/{address}:{port}
//	Value: JSON-encoded Endpoint
//
// Registration uses TTL-based leases: if the owning process dies, the
// lease expires and the entry disappears on its own.
package registry

import (
	"context"
	"encoding/json"
	"fmt"

	clientv3 "go.etcd.io/etcd/client/v3"
	"go.uber.org/zap"
)

// EtcdRegistry implements Registry using etcd v3.
type EtcdRegistry struct {
	client *clientv3.Client
	logger *zap.Logger
}

// NewEtcdRegistry connects to the given etcd endpoints, logging lease and
// watch failures through logger (or a no-op logger if nil).
func NewEtcdRegistry(endpoints []string, logger *zap.Logger) (*EtcdRegistry, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	c, err := clientv3.New(clientv3.Config{
		Endpoints: endpoints,
	})
	if err != nil {
		return nil, err
	}
	return &EtcdRegistry{client: c, logger: logger}, nil
}

func key(clusterName string, ep Endpoint) string {
	return fmt.Sprintf("/kvnode/%s/%s:%d", clusterName, ep.Address, ep.Port)
}

// Register adds ep to clusterName under a TTL lease and starts a
// background KeepAlive to renew it. leaseID is a local variable, not
// stored on the struct, so concurrent Register calls sharing one
// EtcdRegistry don't race over it.
func (r *EtcdRegistry) Register(clusterName string, ep Endpoint, ttlSeconds int64) error {
	ctx := context.TODO()

	lease, err := r.client.Grant(ctx, ttlSeconds)
	if err != nil {
		r.logger.Error("lease grant failed", zap.String("cluster", clusterName), zap.Error(err))
		return err
	}

	val, err := json.Marshal(ep)
	if err != nil {
		return err
	}

	if _, err := r.client.Put(ctx, key(clusterName, ep), string(val), clientv3.WithLease(lease.ID)); err != nil {
		r.logger.Error("register put failed", zap.String("cluster", clusterName), zap.Error(err))
		return err
	}

	ch, err := r.client.KeepAlive(ctx, lease.ID)
	if err != nil {
		r.logger.Error("keepalive failed", zap.String("cluster", clusterName), zap.Error(err))
		return err
	}
	go func() {
		for range ch {
		}
		r.logger.Debug("lease keepalive channel closed", zap.String("cluster", clusterName))
	}()
	return nil
}

// Deregister removes ep from clusterName immediately, ahead of its lease
// expiring.
func (r *EtcdRegistry) Deregister(clusterName string, ep Endpoint) error {
	_, err := r.client.Delete(context.TODO(), key(clusterName, ep))
	if err != nil {
		r.logger.Error("deregister failed", zap.String("cluster", clusterName), zap.Error(err))
	}
	return err
}

// Watch emits the full endpoint list for clusterName whenever it changes.
func (r *EtcdRegistry) Watch(clusterName string) <-chan []Endpoint {
	ctx := context.TODO()
	ch := make(chan []Endpoint, 1)
	prefix := fmt.Sprintf("/kvnode/%s/", clusterName)

	go func() {
		watchChan := r.client.Watch(ctx, prefix, clientv3.WithPrefix())
		for resp := range watchChan {
			if err := resp.Err(); err != nil {
				r.logger.Error("watch failed", zap.String("cluster", clusterName), zap.Error(err))
				continue
			}
			endpoints, err := r.Discover(clusterName)
			if err != nil {
				r.logger.Error("discover after watch event failed", zap.String("cluster", clusterName), zap.Error(err))
				continue
			}
			ch <- endpoints
		}
	}()

	return ch
}

// Discover returns every endpoint currently registered for clusterName.
func (r *EtcdRegistry) Discover(clusterName string) ([]Endpoint, error) {
	ctx := context.TODO()
	prefix := fmt.Sprintf("/kvnode/%s/", clusterName)

	resp, err := r.client.Get(ctx, prefix, clientv3.WithPrefix())
	if err != nil {
		return nil, err
	}

	endpoints := make([]Endpoint, 0, len(resp.Kvs))
	for _, kv := range resp.Kvs {
		var ep Endpoint
		if err := json.Unmarshal(kv.Value, &ep); err != nil {
			continue
		}
		endpoints = append(endpoints, ep)
	}
	return endpoints, nil
}
