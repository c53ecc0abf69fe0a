// Package recogniser turns FLAC audio into text via the Google speech-api
// v2 endpoint.
package recogniser

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/hexpanda/qwenvoice/internal/logger"
)

const apiURL = "http://www.google.com/speech-api/v2/recognize"

type Alternative struct {
	Transcript string  `json:"transcript"`
	Confidence float64 `json:"confidence"`
}

type Result struct {
	Alternative []Alternative `json:"alternative"`
	Final       bool          `json:"final"`
}

type Response struct {
	Result []Result `json:"result"`
}

type Recogniser struct {
	key  string
	http *http.Client
	log  *logger.Logger
}

// New reads the API key from the environment. Voice input stays disabled
// when no key is configured.
func New() (*Recogniser, error) {
	key := os.Getenv("API_KEY")
	if key == "" {
		return nil, errors.New("API_KEY is not set")
	}
	return &Recogniser{
		key:  key,
		http: &http.Client{},
		log:  logger.NewLogger("recogniser"),
	}, nil
}

// Recognise sends a FLAC payload and returns the best transcript with its
// confidence.
func (r *Recogniser) Recognise(flacData []byte) (string, float64, error) {
	data := url.Values{}
	data.Set("client", "chromium")
	data.Set("lang", "en-US")
	data.Set("key", r.key)
	data.Set("pFilter", "0")

	req, err := http.NewRequest(http.MethodPost, apiURL+"?"+data.Encode(), bytes.NewReader(flacData))
	if err != nil {
		return "", 0, fmt.Errorf("building recogniser request: %w", err)
	}
	req.Header.Add("Content-Type", "audio/x-flac; rate=16000")

	resp, err := r.http.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("sending recogniser request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", 0, fmt.Errorf("reading recogniser response: %w", err)
	}
	r.log.Info("recogniser response status: ", resp.Status)

	return parse(string(body))
}

// parse walks the newline separated JSON blobs the endpoint returns and
// picks the highest confidence hypothesis.
func parse(responseText string) (string, float64, error) {
	result, err := firstResult(responseText)
	if err != nil {
		return "", 0, err
	}

	best, err := bestHypothesis(result.Alternative)
	if err != nil {
		return "", 0, err
	}

	confidence := best.Confidence
	if confidence == 0 {
		confidence = 0.5
	}
	return best.Transcript, confidence, nil
}

func firstResult(responseText string) (Result, error) {
	for _, line := range strings.Split(responseText, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		var response Response
		if err := json.Unmarshal([]byte(line), &response); err != nil {
			return Result{}, fmt.Errorf("decoding recogniser response: %w", err)
		}
		if len(response.Result) == 0 {
			continue
		}
		if len(response.Result[0].Alternative) == 0 {
			return Result{}, errors.New("no alternatives found")
		}
		return response.Result[0], nil
	}
	return Result{}, errors.New("no valid results found")
}

func bestHypothesis(alternatives []Alternative) (Alternative, error) {
	if len(alternatives) == 0 {
		return Alternative{}, errors.New("no alternatives provided")
	}

	best := Alternative{}
	highest := -1.0
	for _, alternative := range alternatives {
		if alternative.Confidence > highest {
			highest = alternative.Confidence
			best = alternative
		}
	}

	if best.Transcript == "" {
		return Alternative{}, errors.New("best hypothesis does not have a transcript")
	}
	return best, nil
}
