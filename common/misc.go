package common

import (
	"os"

	"github.com/fundwit/go-commons/types"
	"github.com/sony/sonyflake"
)

func NextId(idWorker *sonyflake.Sonyflake) types.ID {
	id, err := idWorker.NextID()
	if err != nil {
		panic(err)
	}
	return types.ID(id)
}

func GetServiceName() string {
	name := os.Getenv("SERVICE_NAME")
	if name == "" {
		return "appbase"
	}
	return name
}

func GetServiceInstance() string {
	instance := os.Getenv("HOSTNAME")
	if instance == "" {
		return "unknown"
	}
	return instance
}
