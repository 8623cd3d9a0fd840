// Package redis provides the Redis connection used by the shared token store.
//
// It wraps go-redis with the module's logging and configuration conventions:
//
//	client, err := redis.New(redis.Config{Addr: "localhost:6379"}, log)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
package redis
