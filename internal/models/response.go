package models

import "time"

const responseVersion = 2

// ResponseModel Base response structure shared by every endpoint
type ResponseModel struct {
	Code        int         `json:"code"`
	CurrentTime int64       `json:"currentTime"`
	Data        interface{} `json:"data"`
	Text        string      `json:"text"`
	Version     int         `json:"version"`
}

// ResponseCurrentTime returns the server time in epoch milliseconds, the
// unit every response timestamp uses.
func ResponseCurrentTime() int64 {
	return time.Now().UnixNano() / int64(time.Millisecond)
}

// NewResponse builds a response envelope with an explicit code and text.
func NewResponse(code int, data interface{}, text string) ResponseModel {
	return ResponseModel{
		Code:        code,
		CurrentTime: ResponseCurrentTime(),
		Data:        data,
		Text:        text,
		Version:     responseVersion,
	}
}

// NewEntryResponse wraps a single entity as a successful response.
func NewEntryResponse(entry interface{}) ResponseModel {
	return NewResponse(200, struct {
		Entry interface{} `json:"entry"`
	}{Entry: entry}, "OK")
}

// NewListResponse wraps a list of entities as a successful response.
func NewListResponse(list interface{}) ResponseModel {
	return NewResponse(200, struct {
		List interface{} `json:"list"`
	}{List: list}, "OK")
}
