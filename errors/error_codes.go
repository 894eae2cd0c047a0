package errors

import "strconv"

// ERR is the numeric error code carried by every *Error.
// Codes are grouped in ranges of ten, see GetErrorCategory.
type ERR int32

const (
	ERR_UNKNOWN            ERR = 0
	ERR_INVALID_ARGUMENT   ERR = 1
	ERR_THRESHOLD_EXCEEDED ERR = 2
	ERR_NOT_FOUND          ERR = 3
	ERR_PROCESSING         ERR = 4
	ERR_CONFIGURATION      ERR = 5
	ERR_CONTEXT            ERR = 6
	ERR_CONTEXT_CANCELED   ERR = 7
	ERR_ERROR              ERR = 9

	// header verification
	ERR_INVALID_TARGET        ERR = 10
	ERR_EMPTY_INPUT           ERR = 11
	ERR_INVALID_PARENT        ERR = 12
	ERR_TARGET_MISMATCH       ERR = 13
	ERR_RETARGET_REQUIRED     ERR = 14
	ERR_INSUFFICIENT_WORK     ERR = 15
	ERR_INVALID_HEADERS_INPUT ERR = 16

	// chain state
	ERR_UNKNOWN_PARENT       ERR = 20
	ERR_FORKS_NOT_SUPPORTED  ERR = 21
	ERR_UNAUTHORIZED         ERR = 22
	ERR_ATTESTATION_REJECTED ERR = 23

	ERR_SERVICE_UNAVAILABLE ERR = 50
	ERR_SERVICE_NOT_STARTED ERR = 51
	ERR_SERVICE_ERROR       ERR = 52

	ERR_STORAGE_UNAVAILABLE ERR = 60
	ERR_STORAGE_NOT_STARTED ERR = 61
	ERR_STORAGE_ERROR       ERR = 62

	ERR_KAFKA_ERROR ERR = 80

	ERR_STATE_INITIALIZED     ERR = 100
	ERR_STATE_NOT_INITIALIZED ERR = 101

	ERR_NETWORK_ERROR              ERR = 110
	ERR_NETWORK_TIMEOUT            ERR = 111
	ERR_NETWORK_CONNECTION_REFUSED ERR = 112
	ERR_NETWORK_INVALID_RESPONSE   ERR = 113
)

var (
	ERR_name = map[int32]string{
		0:   "UNKNOWN",
		1:   "INVALID_ARGUMENT",
		2:   "THRESHOLD_EXCEEDED",
		3:   "NOT_FOUND",
		4:   "PROCESSING",
		5:   "CONFIGURATION",
		6:   "CONTEXT",
		7:   "CONTEXT_CANCELED",
		9:   "ERROR",
		10:  "INVALID_TARGET",
		11:  "EMPTY_INPUT",
		12:  "INVALID_PARENT",
		13:  "TARGET_MISMATCH",
		14:  "RETARGET_REQUIRED",
		15:  "INSUFFICIENT_WORK",
		16:  "INVALID_HEADERS_INPUT",
		20:  "UNKNOWN_PARENT",
		21:  "FORKS_NOT_SUPPORTED",
		22:  "UNAUTHORIZED",
		23:  "ATTESTATION_REJECTED",
		50:  "SERVICE_UNAVAILABLE",
		51:  "SERVICE_NOT_STARTED",
		52:  "SERVICE_ERROR",
		60:  "STORAGE_UNAVAILABLE",
		61:  "STORAGE_NOT_STARTED",
		62:  "STORAGE_ERROR",
		80:  "KAFKA_ERROR",
		100: "STATE_INITIALIZED",
		101: "STATE_NOT_INITIALIZED",
		110: "NETWORK_ERROR",
		111: "NETWORK_TIMEOUT",
		112: "NETWORK_CONNECTION_REFUSED",
		113: "NETWORK_INVALID_RESPONSE",
	}

	ERR_value = func() map[string]int32 {
		m := make(map[string]int32, len(ERR_name))
		for k, v := range ERR_name {
			m[v] = k
		}

		return m
	}()
)

func (x ERR) Enum() *ERR {
	p := new(ERR)
	*p = x

	return p
}

func (x ERR) String() string {
	if name, ok := ERR_name[int32(x)]; ok {
		return name
	}

	return strconv.Itoa(int(x))
}

// ParseERR returns the code registered under name, or ERR_UNKNOWN.
func ParseERR(name string) ERR {
	if v, ok := ERR_value[name]; ok {
		return ERR(v)
	}

	return ERR_UNKNOWN
}
