package model_test

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/go-skynet/inpaintd/pkg/grpc"
	"github.com/go-skynet/inpaintd/pkg/grpc/base"
	"github.com/go-skynet/inpaintd/pkg/model"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type recordingDiffuser struct {
	base.SingleThread
	loaded *grpc.ModelOptions
	fail   bool
}

func (r *recordingDiffuser) Load(opts *grpc.ModelOptions) error {
	if r.fail {
		return errors.New("repository not found")
	}
	r.loaded = opts
	return nil
}

func serve(d grpc.Diffuser) string {
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	Expect(err).ToNot(HaveOccurred())
	srv := grpc.NewServer(d)
	go func() {
		defer GinkgoRecover()
		_ = srv.Serve(lis)
	}()
	DeferCleanup(srv.Stop)
	return lis.Addr().String()
}

var _ = Describe("ModelLoader", func() {
	var (
		loader   *model.ModelLoader
		diffuser *recordingDiffuser
	)

	BeforeEach(func() {
		loader = model.NewModelLoader()
		diffuser = &recordingDiffuser{}
		DeferCleanup(loader.Stop)
	})

	It("loads the default inpainting checkpoint in half precision", func() {
		address := serve(diffuser)

		client, err := loader.Load(model.WithBackendAddress(address))
		Expect(err).ToNot(HaveOccurred())
		Expect(client).ToNot(BeNil())
		Expect(loader.Client()).To(Equal(client))
		Expect(loader.Address()).To(Equal(address))

		Expect(diffuser.loaded.Model).To(Equal("runwayml/stable-diffusion-inpainting"))
		Expect(diffuser.loaded.PipelineType).To(Equal("StableDiffusionInpaintPipeline"))
		Expect(diffuser.loaded.DType).To(Equal("float16"))
		Expect(loader.LoadedModel().Model).To(Equal(diffuser.loaded.Model))
	})

	It("passes model overrides through", func() {
		address := serve(diffuser)

		_, err := loader.Load(
			model.WithBackendAddress(address),
			model.WithModel("stabilityai/stable-diffusion-2-inpainting"),
			model.WithDType("float32"),
			model.WithSchedulerType("DDIMScheduler"),
			model.WithCUDA(true),
		)
		Expect(err).ToNot(HaveOccurred())
		Expect(diffuser.loaded.Model).To(Equal("stabilityai/stable-diffusion-2-inpainting"))
		Expect(diffuser.loaded.DType).To(Equal("float32"))
		Expect(diffuser.loaded.SchedulerType).To(Equal("DDIMScheduler"))
		Expect(diffuser.loaded.CUDA).To(BeTrue())
	})

	It("only loads once", func() {
		address := serve(diffuser)

		_, err := loader.Load(model.WithBackendAddress(address))
		Expect(err).ToNot(HaveOccurred())
		_, err = loader.Load(model.WithBackendAddress(address))
		Expect(err).To(MatchError(model.ErrAlreadyLoaded))
	})

	It("fails when the checkpoint cannot be loaded", func() {
		diffuser.fail = true
		address := serve(diffuser)

		_, err := loader.Load(model.WithBackendAddress(address))
		Expect(err).To(MatchError(ContainSubstring("repository not found")))
		Expect(loader.Client()).To(BeNil())
	})

	It("fails when no runtime is configured", func() {
		_, err := loader.Load()
		Expect(err).To(HaveOccurred())
	})

	It("gives up on runtimes that never become healthy", func() {
		lis, err := net.Listen("tcp", "127.0.0.1:0")
		Expect(err).ToNot(HaveOccurred())
		address := lis.Addr().String()
		Expect(lis.Close()).To(Succeed())

		_, err = loader.Load(
			model.WithBackendAddress(address),
			model.WithHealthCheck(2, 10*time.Millisecond),
		)
		Expect(err).To(MatchError(ContainSubstring("not ready")))
	})

	It("stops waiting when the context is cancelled", func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := loader.Load(
			model.WithBackendAddress("127.0.0.1:1"),
			model.WithContext(ctx),
			model.WithHealthCheck(5, time.Second),
		)
		Expect(err).To(HaveOccurred())
	})

	It("uses embedded runtimes", func() {
		grpc.Provide("embedded://loader-test", diffuser)
		_, err := loader.Load(model.WithBackendAddress("embedded://loader-test"))
		Expect(err).ToNot(HaveOccurred())
		Expect(diffuser.loaded).ToNot(BeNil())
	})

	It("has no process when connecting to an address", func() {
		_, err := loader.PID()
		Expect(err).To(HaveOccurred())
		Expect(loader.Stop()).To(Succeed())
	})
})
