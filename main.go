package main

import (
	"context"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/dmorgan81/craiyonbot/internal/handle"
	"github.com/dmorgan81/craiyonbot/internal/inject"
	"github.com/dmorgan81/craiyonbot/internal/log"
	"github.com/samber/do"
)

func handler(injector *do.Injector) any {
	switch os.Getenv("HANDLER") {
	case "html":
		return do.MustInvoke[*handle.HtmlHandler](injector).Handle
	case "feed":
		return do.MustInvoke[*handle.FeedHandler](injector).Handle
	default:
		return do.MustInvoke[*handle.ImageHandler](injector).Handle
	}
}

func main() {
	logger := log.New(os.Stderr, log.ParseLevel(os.Getenv("LOG_LEVEL")))
	ctx := log.NewContext(context.Background(), logger)
	injector := inject.Setup(ctx)
	lambda.StartWithOptions(handler(injector), lambda.WithContext(ctx), lambda.WithEnableSIGTERM(func() {
		_ = injector.Shutdown()
	}))
}
