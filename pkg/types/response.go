package types

type SuccessEnvelope struct {
	Data any `json:"data"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// ItemList is the payload shape for every collection response.
type ItemList[T any] struct {
	Items []T `json:"items"`
}

// Items wraps a slice, turning nil into an empty list.
func Items[T any](items []T) ItemList[T] {
	if items == nil {
		items = []T{}
	}
	return ItemList[T]{Items: items}
}
