package funcache

// Driver identifies a storage backend variant.
type Driver string

const (
	DriverShelf  Driver = "shelf"
	DriverFile   Driver = "file"
	DriverMemory Driver = "memory"
	DriverRedis  Driver = "redis"
	DriverDynamo Driver = "dynamodb"
	DriverNATS   Driver = "nats"
)
