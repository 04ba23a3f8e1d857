// Command demo walks one document through the review workflow in memory
// and logs what a reader can see after each step.
package main

import (
	"fmt"
	"os"

	"github.com/garyjia/post-review/internal/domain/entity"
	"github.com/garyjia/post-review/pkg/utils"
	"go.uber.org/zap"
)

const post = "I ate a salad for lunch today"

func main() {
	logger, err := utils.NewLogger(utils.LoggerConfig{Level: "info", Format: "console"})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	doc := entity.NewDocument()
	steps := []struct {
		name string
		do   func()
		want string
	}{
		{"add_text", func() { doc.AddText(post) }, ""},
		{"request_review", doc.RequestReview, ""},
		{"approve", doc.Approve, post},
	}

	for _, step := range steps {
		step.do()
		content := doc.Content()

		logger.Info("Step applied",
			zap.String("step", step.name),
			zap.String("state", doc.State().String()),
			zap.String("content", content))

		if content != step.want {
			logger.Error("Unexpected visible content",
				zap.String("step", step.name),
				zap.String("want", step.want),
				zap.String("got", content))
			os.Exit(1)
		}
	}

	logger.Info("Document published", zap.Int("length", doc.Len()))
}
