package storage

import (
	"context"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azqueue"
	"github.com/bytedance/sonic"

	"promptly/domain"
)

// CopyEventQueue publishes copy events to an Azure storage queue.
type CopyEventQueue struct {
	queue *azqueue.QueueClient
}

// NewCopyEventQueue creates a queue publisher from the given connection string.
func NewCopyEventQueue(connStr, queueName string) (*CopyEventQueue, error) {
	opts := azqueue.ClientOptions{
		ClientOptions: azcore.ClientOptions{
			Retry: policy.RetryOptions{
				MaxRetries:    5,
				TryTimeout:    time.Minute,
				RetryDelay:    time.Second,
				MaxRetryDelay: time.Second * 30,
				StatusCodes:   []int{408, 429, 500, 502, 503, 504},
			},
		},
	}
	q, err := azqueue.NewQueueClientFromConnectionString(connStr, queueName, &opts)
	if err != nil {
		return nil, err
	}
	return &CopyEventQueue{queue: q}, nil
}

// PublishCopyEvent enqueues ev as a JSON message.
func (q *CopyEventQueue) PublishCopyEvent(ctx context.Context, ev domain.CopyEvent) error {
	msg, err := encodeCopyEvent(ev)
	if err != nil {
		return err
	}
	_, err = q.queue.EnqueueMessage(ctx, msg, nil)
	return err
}

func encodeCopyEvent(ev domain.CopyEvent) (string, error) {
	data, err := sonic.Marshal(ev)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
