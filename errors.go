package vkr

import (
	"fmt"
	"log"
	"runtime"

	vk "github.com/vulkan-go/vulkan"
)

func isError(ret vk.Result) bool {
	return ret != vk.Success
}

// NewError wraps a non-success vk.Result into an error carrying the caller
// location. Returns nil for vk.Success.
func NewError(ret vk.Result) error {
	if ret == vk.Success {
		return nil
	}
	if _, file, line, ok := runtime.Caller(1); ok {
		return fmt.Errorf("vulkan error: %s (%d) at %s:%d",
			vk.Error(ret).Error(), ret, file, line)
	}
	return fmt.Errorf("vulkan error: %s (%d)", vk.Error(ret).Error(), ret)
}

// orPanic panics on error, running finalizers first so partially created
// resources are released before the stack unwinds to the process boundary.
func orPanic(err error, finalizers ...func()) {
	if err != nil {
		for _, fn := range finalizers {
			fn()
		}
		panic(err)
	}
}

// Fatal terminates the process with a message. There is no recovery path in
// this layer: setup and runtime API failures are both fatal.
func Fatal(err error, finalizers ...func()) {
	if err == nil {
		return
	}
	for _, fn := range finalizers {
		fn()
	}
	log.Fatalf("fatal: %v", err)
}

// checkErr recovers a panic into the named error return of the caller.
func checkErr(err *error) {
	if v := recover(); v != nil {
		*err = fmt.Errorf("%+v", v)
	}
}
