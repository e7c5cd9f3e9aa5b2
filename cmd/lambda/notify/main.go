package main

import (
	_ "time/tzdata"

	awslambda "github.com/aws/aws-lambda-go/lambda"

	"certidesk/internal/app"
	"certidesk/internal/config"
	"certidesk/internal/handlers"
	"certidesk/internal/logging"
)

var container *app.Container

func init() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}
	container = app.NewContainer(cfg, logging.New(cfg.Log))
}

func main() {
	awslambda.Start(handlers.LambdaHandler(container.Notify))
}
