package discovery

import (
	"context"
	"fmt"
	"time"

	"github.com/example/shophub/pkg/config"
	clientv3 "go.etcd.io/etcd/client/v3"
)

// Registry registers service instances in etcd under a lease and resolves
// peers for gRPC clients.
type Registry struct {
	client *clientv3.Client
	prefix string
}

type Instance struct {
	Name string
	Host string
	Port int
}

func (i *Instance) Addr() string {
	return fmt.Sprintf("%s:%d", i.Host, i.Port)
}

func New(cfg *config.EtcdConfig) (*Registry, error) {
	cli, err := clientv3.New(clientv3.Config{
		Endpoints:   cfg.Endpoints,
		DialTimeout: cfg.DialTimeout * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to etcd: %w", err)
	}

	return &Registry{client: cli, prefix: cfg.Prefix}, nil
}

func (r *Registry) key(instance *Instance) string {
	return fmt.Sprintf("%s%s/%s", r.prefix, instance.Name, instance.Addr())
}

// Register puts the instance under a 30s lease and keeps it alive until the
// context is canceled.
func (r *Registry) Register(ctx context.Context, instance *Instance) error {
	lease, err := r.client.Grant(ctx, 30)
	if err != nil {
		return fmt.Errorf("failed to create lease: %w", err)
	}

	_, err = r.client.Put(ctx, r.key(instance), instance.Addr(), clientv3.WithLease(lease.ID))
	if err != nil {
		return fmt.Errorf("failed to register service: %w", err)
	}

	ch, err := r.client.KeepAlive(ctx, lease.ID)
	if err != nil {
		return fmt.Errorf("failed to keep alive: %w", err)
	}

	go func() {
		for range ch {
		}
	}()

	return nil
}

func (r *Registry) Deregister(ctx context.Context, instance *Instance) error {
	if _, err := r.client.Delete(ctx, r.key(instance)); err != nil {
		return fmt.Errorf("failed to deregister service: %w", err)
	}
	return nil
}

// Resolve returns the addresses registered for a service name.
func (r *Registry) Resolve(ctx context.Context, serviceName string) ([]string, error) {
	key := fmt.Sprintf("%s%s/", r.prefix, serviceName)

	resp, err := r.client.Get(ctx, key, clientv3.WithPrefix())
	if err != nil {
		return nil, fmt.Errorf("failed to discover service: %w", err)
	}

	addrs := make([]string, 0, len(resp.Kvs))
	for _, kv := range resp.Kvs {
		addrs = append(addrs, string(kv.Value))
	}
	return addrs, nil
}

func (r *Registry) Close() error {
	return r.client.Close()
}
