package hostinterface

/*
#include <stdlib.h>
#include <stdio.h>
#include <string.h>
*/
import "C"
import (
	"unsafe"
)

// called by the host to get the version of the extension
//
//export NavLinkExtensionVersion
func NavLinkExtensionVersion(output *C.char, outputsize C.size_t) {
	replyToSyncCall(Config.version, output, outputsize)
}

// called by the host in the form "command" or "command|arg1|arg2"
//
//export NavLinkExtension
func NavLinkExtension(output *C.char, outputsize C.size_t, input *C.char) {
	command, args := splitCommand(C.GoString(input))
	replyToSyncCall(handleCall(command, args), output, outputsize)
}

// called by the host in the form ["command", ["arg1", "arg2"]]
//
//export NavLinkExtensionArgs
func NavLinkExtensionArgs(output *C.char, outputsize C.size_t, input *C.char, argv **C.char, argc C.int) {
	command := C.GoString(input)
	args := parseArgsFromC(argv, argc)
	replyToSyncCall(handleCall(command, args), output, outputsize)
}

// parseArgsFromC converts C argv array to Go string slice
func parseArgsFromC(argv **C.char, argc C.int) []string {
	var offset = unsafe.Sizeof(uintptr(0))
	var data []string
	for index := C.int(0); index < argc; index++ {
		data = append(data, C.GoString(*argv))
		argv = (**C.char)(unsafe.Pointer(uintptr(unsafe.Pointer(argv)) + offset))
	}
	return data
}

// replyToSyncCall copies the response into the host's output buffer, truncating to outputsize
func replyToSyncCall(response string, output *C.char, outputsize C.size_t) {
	result := C.CString(response)
	defer C.free(unsafe.Pointer(result))
	var size = C.strlen(result) + 1
	if size > outputsize {
		size = outputsize
	}
	C.memmove(unsafe.Pointer(output), unsafe.Pointer(result), size)
}
