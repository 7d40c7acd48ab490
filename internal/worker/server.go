package worker

import (
	"context"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"

	"github.com/nwesha/Zcoder/internal/tasks"
)

// Server wraps the asynq consumer with the queue weighting this application
// uses: document flushes outrank everything, activity logging yields.
type Server struct {
	srv *asynq.Server
	mux *asynq.ServeMux
	log *logrus.Logger
}

func NewServer(redisOpt asynq.RedisClientOpt, handlers *Handlers, log *logrus.Logger) *Server {
	srv := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: 10,
		Queues: map[string]int{
			"critical": 6,
			"default":  3,
			"low":      1,
		},
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			log.WithError(err).WithField("task_type", task.Type()).Error("task failed")
		}),
	})

	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypeDocumentPersist, handlers.HandleDocumentPersist)
	mux.HandleFunc(tasks.TypeActivityRecord, handlers.HandleActivityRecord)

	return &Server{srv: srv, mux: mux, log: log}
}

// Start runs the consumer on its own goroutines. Non-blocking.
func (s *Server) Start() error {
	s.log.Info("Background worker starting")
	return s.srv.Start(s.mux)
}

// Shutdown drains in-flight tasks and stops the consumer.
func (s *Server) Shutdown() {
	s.log.Info("Background worker stopping")
	s.srv.Shutdown()
}
