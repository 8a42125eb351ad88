package grpc_test

import (
	"os"
	"regexp"

	. "github.com/go-skynet/inpaintd/pkg/grpc"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Runtime service schema", func() {
	It("declares every method the client calls as a Struct rpc", func() {
		data, err := os.ReadFile("../../backend/inpaint.proto")
		Expect(err).ToNot(HaveOccurred())
		schema := string(data)

		Expect(schema).To(ContainSubstring("package inpaint;"))
		Expect(schema).To(ContainSubstring("service Pipeline {"))
		Expect(ServiceName).To(Equal("inpaint.Pipeline"))

		rpc := regexp.MustCompile(`rpc (\w+)\(google\.protobuf\.Struct\) returns \(google\.protobuf\.Struct\)`)
		var declared []string
		for _, m := range rpc.FindAllStringSubmatch(schema, -1) {
			declared = append(declared, m[1])
		}
		Expect(declared).To(ConsistOf(
			MethodHealth, MethodLoadModel, MethodSchedulerConfig, MethodSetScheduler,
			MethodToDevice, MethodInpaint, MethodStatus,
		))
	})
})
