package webhook

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/orrn/printq/internal/core"
)

type Event string

const (
	EventBatchDispatched Event = "batch_dispatched"
	EventItemsPrinted    Event = "items_printed"
	EventItemSkipped     Event = "item_skipped"
)

type Payload struct {
	Event     string      `json:"event"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
	Signature string      `json:"signature,omitempty"`
}

type BatchDispatchedData struct {
	ClaimID string  `json:"claim_id,omitempty"`
	JobIDs  []int64 `json:"job_ids"`
	Skipped int     `json:"skipped"`
}

type ItemsPrintedData struct {
	IDs      []int64 `json:"ids"`
	Affected int64   `json:"affected"`
}

type ItemSkippedData struct {
	ID    int64  `json:"id"`
	Error string `json:"error"`
}

// Endpoint is one webhook receiver. An empty Events list subscribes it
// to everything.
type Endpoint struct {
	Name   string
	URL    string
	Secret string
	Events []string
}

type Config struct {
	Endpoints   []Endpoint
	RetryCount  int
	RetryDelay  time.Duration
	Timeout     time.Duration
	WorkerCount int
	QueueSize   int
}

type task struct {
	endpoint Endpoint
	payload  *Payload
	attempt  int
}

// Sender fans dispatch lifecycle events out to the configured endpoints
// from a bounded worker pool. Delivery is best-effort: a full queue
// drops the event rather than stalling a dispatch cycle.
type Sender struct {
	endpoints   []Endpoint
	httpClient  *http.Client
	retryCount  int
	retryDelay  time.Duration
	workerCount int
	queue       chan *task
	stopCh      chan struct{}
	wg          sync.WaitGroup
}

func NewSender(config Config) *Sender {
	if config.RetryCount <= 0 {
		config.RetryCount = 3
	}
	if config.RetryDelay <= 0 {
		config.RetryDelay = 5 * time.Second
	}
	if config.Timeout <= 0 {
		config.Timeout = 10 * time.Second
	}
	if config.WorkerCount <= 0 {
		config.WorkerCount = 3
	}
	if config.QueueSize <= 0 {
		config.QueueSize = 100
	}

	return &Sender{
		endpoints: config.Endpoints,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		retryCount:  config.RetryCount,
		retryDelay:  config.RetryDelay,
		workerCount: config.WorkerCount,
		queue:       make(chan *task, config.QueueSize),
		stopCh:      make(chan struct{}),
	}
}

func (s *Sender) Start() {
	for i := 0; i < s.workerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}
}

func (s *Sender) Stop() {
	close(s.stopCh)
	s.wg.Wait()
}

// BatchDispatched implements core.EventSink.
func (s *Sender) BatchDispatched(claimID string, jobIDs []int64, skipped []core.SkippedItem) {
	if len(jobIDs) == 0 && len(skipped) == 0 {
		return
	}

	s.enqueue(EventBatchDispatched, &BatchDispatchedData{
		ClaimID: claimID,
		JobIDs:  jobIDs,
		Skipped: len(skipped),
	})
	for _, item := range skipped {
		s.enqueue(EventItemSkipped, &ItemSkippedData{ID: item.ID, Error: item.Error})
	}
}

// ItemsPrinted implements core.EventSink.
func (s *Sender) ItemsPrinted(ids []int64, affected int64) {
	if len(ids) == 0 {
		return
	}
	s.enqueue(EventItemsPrinted, &ItemsPrintedData{IDs: ids, Affected: affected})
}

func (s *Sender) enqueue(event Event, data interface{}) {
	for _, endpoint := range s.endpoints {
		if !subscribed(endpoint, event) {
			continue
		}

		t := &task{
			endpoint: endpoint,
			payload: &Payload{
				Event:     string(event),
				Timestamp: time.Now(),
				Data:      data,
			},
		}

		select {
		case s.queue <- t:
		default:
			log.Printf("[webhook] queue full, dropping %s for endpoint %s", event, endpoint.Name)
		}
	}
}

func subscribed(endpoint Endpoint, event Event) bool {
	if len(endpoint.Events) == 0 {
		return true
	}
	for _, e := range endpoint.Events {
		if e == string(event) {
			return true
		}
	}
	return false
}

func (s *Sender) worker(id int) {
	defer s.wg.Done()

	for {
		select {
		case <-s.stopCh:
			return
		case t := <-s.queue:
			if err := s.sendWithRetry(t); err != nil {
				log.Printf("[webhook worker %d] failed to deliver %s to %s after %d attempts: %v",
					id, t.payload.Event, t.endpoint.Name, t.attempt, err)
			}
		}
	}
}

func (s *Sender) sendWithRetry(t *task) error {
	var lastErr error
	for t.attempt < s.retryCount {
		t.attempt++

		err := s.sendRequest(t.endpoint, t.payload)
		if err == nil {
			return nil
		}
		lastErr = err

		if isClientError(err) {
			log.Printf("[webhook] client error from %s, not retrying: %v", t.endpoint.Name, err)
			return err
		}

		if t.attempt < s.retryCount {
			backoff := s.retryDelay * time.Duration(1<<(t.attempt-1))
			log.Printf("[webhook] retry %d/%d for %s in %v: %v",
				t.attempt, s.retryCount, t.endpoint.Name, backoff, err)

			select {
			case <-s.stopCh:
				return fmt.Errorf("shutdown requested")
			case <-time.After(backoff):
			}
		}
	}

	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

func (s *Sender) sendRequest(endpoint Endpoint, payload *Payload) error {
	dataBytes, err := json.Marshal(payload.Data)
	if err != nil {
		return fmt.Errorf("marshal data: %w", err)
	}

	if endpoint.Secret != "" {
		payload.Signature = signPayload(dataBytes, endpoint.Secret)
	}

	fullPayload, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequest("POST", endpoint.URL, bytes.NewReader(fullPayload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Printq-Signature", payload.Signature)
	req.Header.Set("X-Printq-Event", payload.Event)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("http error: %d", resp.StatusCode)
	}

	return nil
}

func signPayload(payload []byte, secret string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write(payload)
	return hex.EncodeToString(h.Sum(nil))
}

func isClientError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "http error: 4")
}
