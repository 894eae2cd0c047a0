package util

import (
	"net/url"
	"strconv"
)

func GetQueryParam(u *url.URL, key string, defaultValue string) string {
	if value := u.Query().Get(key); value != "" {
		return value
	}

	return defaultValue
}

func GetQueryParamInt(u *url.URL, key string, defaultValue int) int {
	value := u.Query().Get(key)
	if value == "" {
		return defaultValue
	}

	i, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	return i
}
