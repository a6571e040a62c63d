package vkr

import "unsafe"

// safeString null-terminates a string for passing over the C boundary.
func safeString(s string) string {
	if len(s) == 0 {
		return "\x00"
	}
	if s[len(s)-1] != '\x00' {
		return s + "\x00"
	}
	return s
}

func safeStrings(list []string) []string {
	for i := range list {
		list[i] = safeString(list[i])
	}
	return list
}

// checkExisting filters the required names down to those present in actual,
// returning the supported subset and how many were missing.
func checkExisting(actual, required []string) (existing []string, missing int) {
	for _, req := range required {
		found := false
		for _, act := range actual {
			if safeString(req) == safeString(act) {
				found = true
				break
			}
		}
		if found {
			existing = append(existing, safeString(req))
		} else {
			missing++
		}
	}
	return existing, missing
}

// sliceUint32 reinterprets SPIR-V bytecode as the uint32 words Vulkan expects.
func sliceUint32(data []byte) []uint32 {
	const m = 0x7fffffff
	return (*[m / 4]uint32)(unsafe.Pointer(&data[0]))[:len(data)/4]
}

// F32Bytes reinterprets float32 data as bytes for buffer uploads.
func F32Bytes(v []float32) []byte {
	const m = 0x7fffffff
	if len(v) == 0 {
		return nil
	}
	return (*[m]byte)(unsafe.Pointer(&v[0]))[: len(v)*4 : len(v)*4]
}

// U32Bytes reinterprets uint32 data as bytes for buffer uploads.
func U32Bytes(v []uint32) []byte {
	const m = 0x7fffffff
	if len(v) == 0 {
		return nil
	}
	return (*[m]byte)(unsafe.Pointer(&v[0]))[: len(v)*4 : len(v)*4]
}
