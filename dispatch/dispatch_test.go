package dispatch_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/wavesim/dispatch"
	"github.com/sarchlab/wavesim/emu"
)

var _ = Describe("Dispatcher", func() {
	var (
		memory *emu.Memory
		out    uint64
	)

	BeforeEach(func() {
		memory = emu.NewMemory(1 << 20)

		var err error
		out, err = memory.Alloc(256)
		Expect(err).NotTo(HaveOccurred())
	})

	launch := func(d *dispatch.Dispatcher, kernel []uint32, grid, block dispatch.Dim3) *dispatch.Result {
		result, err := d.Launch(context.Background(), kernel, grid, block, []uint64{out})
		Expect(err).NotTo(HaveOccurred())
		return result
	}

	words := func(n int) []uint32 {
		w, err := memory.ReadWords(out, n)
		Expect(err).NotTo(HaveOccurred())
		return w
	}

	Describe("Launch", func() {
		It("should run every thread of every work group", func() {
			d := dispatch.NewDispatcher(memory, dispatch.WithWorkers(4))

			result := launch(d, indexKernel(), dispatch.Dim3{X: 3, Y: 1, Z: 1}, dispatch.Dim3{X: 4, Y: 1, Z: 1})

			Expect(words(12)).To(Equal([]uint32{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11}))
			Expect(result.Groups).To(Equal(uint64(3)))
			Expect(result.Stats.Wavefronts).To(Equal(uint64(12)))
			Expect(result.Stats.ScalarLoads).To(Equal(uint64(12)))
			Expect(result.Stats.GlobalStores).To(Equal(uint64(12)))
		})

		It("should write the arguments to the kernel argument buffer", func() {
			d := dispatch.NewDispatcher(memory)

			result, err := d.Launch(context.Background(), indexKernel(),
				dispatch.Dim3{X: 1, Y: 1, Z: 1}, dispatch.Dim3{X: 1, Y: 1, Z: 1},
				[]uint64{out, 0xDEADBEEF00000001})
			Expect(err).NotTo(HaveOccurred())

			args, err := memory.ReadWords(result.KernargAddr, 4)
			Expect(err).NotTo(HaveOccurred())
			Expect(args).To(Equal([]uint32{uint32(out), uint32(out >> 32), 0x00000001, 0xDEADBEEF}))
		})

		It("should give each work group its own LDS", func() {
			d := dispatch.NewDispatcher(memory, dispatch.WithWorkers(3), dispatch.WithLDSSize(4))

			result := launch(d, counterKernel(), dispatch.Dim3{X: 3, Y: 1, Z: 1}, dispatch.Dim3{X: 4, Y: 1, Z: 1})

			Expect(words(3)).To(Equal([]uint32{4, 4, 4}))
			Expect(result.Stats.LDSLoads).To(Equal(uint64(12)))
			Expect(result.Stats.LDSStores).To(Equal(uint64(12)))
		})
	})

	Describe("register seeding", func() {
		record := func(index int) []uint32 {
			return words(32)[index*4 : index*4+4]
		}

		It("should place 1D group ids in s15 and the local x in v0", func() {
			d := dispatch.NewDispatcher(memory)

			launch(d, idKernel(), dispatch.Dim3{X: 2, Y: 1, Z: 1}, dispatch.Dim3{X: 3, Y: 1, Z: 1})

			Expect(record(0)).To(Equal([]uint32{0, 0, 0, 2}))
			Expect(record(4)).To(Equal([]uint32{0, 0, 1, 2}))
		})

		It("should place 2D group ids in s14 and s15 and pack local ids", func() {
			d := dispatch.NewDispatcher(memory, dispatch.WithWorkers(2))

			launch(d, idKernel(), dispatch.Dim3{X: 2, Y: 2, Z: 1}, dispatch.Dim3{X: 2, Y: 2, Z: 1})

			for gx := uint32(0); gx < 2; gx++ {
				for gy := uint32(0); gy < 2; gy++ {
					Expect(record(int(2*gx+4*gy))).To(Equal([]uint32{0, gx, gy, 0x401}))
				}
			}
		})

		It("should place 3D group ids in s13 to s15", func() {
			d := dispatch.NewDispatcher(memory, dispatch.WithWorkers(8))

			launch(d, idKernel(), dispatch.Dim3{X: 2, Y: 2, Z: 2}, dispatch.Dim3{X: 1, Y: 1, Z: 2})

			for gx := uint32(0); gx < 2; gx++ {
				for gy := uint32(0); gy < 2; gy++ {
					for gz := uint32(0); gz < 2; gz++ {
						Expect(record(int(gx+2*gy+4*gz))).To(Equal([]uint32{gx, gy, gz, 1 << 20}))
					}
				}
			}
		})

		It("should keep Z group ids of a grid that is flat in Y", func() {
			d := dispatch.NewDispatcher(memory)

			launch(d, idKernel(), dispatch.Dim3{X: 1, Y: 1, Z: 2}, dispatch.Dim3{X: 1, Y: 1, Z: 1})

			Expect(record(0)).To(Equal([]uint32{0, 0, 0, 0}))
			Expect(record(4)).To(Equal([]uint32{0, 0, 1, 0}))
		})
	})

	Describe("failures", func() {
		It("should return the failing instruction", func() {
			d := dispatch.NewDispatcher(memory, dispatch.WithWorkers(2))

			_, err := d.Launch(context.Background(), program(uint32(0xFFFFFFFF)),
				dispatch.Dim3{X: 4, Y: 1, Z: 1}, dispatch.Dim3{X: 1, Y: 1, Z: 1}, nil)

			Expect(errors.Is(err, emu.ErrUnsupportedInstruction)).To(BeTrue())
			var instErr *emu.InstructionError
			Expect(errors.As(err, &instErr)).To(BeTrue())
			Expect(instErr.Word).To(Equal(uint32(0xFFFFFFFF)))
			Expect(err.Error()).To(ContainSubstring("work group"))
		})

		It("should stop a kernel that exceeds its instruction budget", func() {
			d := dispatch.NewDispatcher(memory,
				dispatch.WithEmulatorOptions(emu.WithMaxInstructions(50)))

			_, err := d.Launch(context.Background(), spinKernel(),
				dispatch.Dim3{X: 1, Y: 1, Z: 1}, dispatch.Dim3{X: 1, Y: 1, Z: 1}, nil)

			Expect(errors.Is(err, emu.ErrInstructionLimit)).To(BeTrue())
		})

		It("should honor a cancelled context", func() {
			d := dispatch.NewDispatcher(memory)
			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			_, err := d.Launch(ctx, indexKernel(),
				dispatch.Dim3{X: 2, Y: 1, Z: 1}, dispatch.Dim3{X: 4, Y: 1, Z: 1}, []uint64{out})

			Expect(errors.Is(err, context.Canceled)).To(BeTrue())
		})

		DescribeTable("should reject unusable dimensions",
			func(grid, block dispatch.Dim3) {
				d := dispatch.NewDispatcher(memory)

				_, err := d.Launch(context.Background(), indexKernel(), grid, block, nil)

				Expect(errors.Is(err, dispatch.ErrInvalidDimensions)).To(BeTrue())
			},
			Entry("empty grid", dispatch.Dim3{X: 0, Y: 1, Z: 1}, dispatch.Dim3{X: 1, Y: 1, Z: 1}),
			Entry("empty block", dispatch.Dim3{X: 1, Y: 1, Z: 1}, dispatch.Dim3{X: 1, Y: 0, Z: 1}),
			Entry("block too wide", dispatch.Dim3{X: 1, Y: 1, Z: 1}, dispatch.Dim3{X: 2048, Y: 1, Z: 1}),
		)

		It("should fail when the arguments do not fit in memory", func() {
			d := dispatch.NewDispatcher(emu.NewMemory(0x1000))

			_, err := d.Launch(context.Background(), indexKernel(),
				dispatch.Dim3{X: 1, Y: 1, Z: 1}, dispatch.Dim3{X: 1, Y: 1, Z: 1}, []uint64{0})

			Expect(errors.Is(err, emu.ErrMemoryFault)).To(BeTrue())
			Expect(err.Error()).To(ContainSubstring("kernel arguments"))
		})
	})

	Describe("logging", func() {
		It("should log the launch and trace instructions per group", func() {
			var buf bytes.Buffer
			logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
			d := dispatch.NewDispatcher(memory, dispatch.WithLogger(logger, emu.TraceInstructions))

			launch(d, indexKernel(), dispatch.Dim3{X: 1, Y: 1, Z: 1}, dispatch.Dim3{X: 1, Y: 1, Z: 1})

			Expect(buf.String()).To(ContainSubstring("launching kernel"))
			Expect(buf.String()).To(ContainSubstring("group="))
			Expect(buf.String()).To(ContainSubstring("msg=instruction"))
		})
	})
})

var _ = Describe("Dim3", func() {
	DescribeTable("Rank",
		func(d dispatch.Dim3, rank int) {
			Expect(d.Rank()).To(Equal(rank))
		},
		Entry("line", dispatch.Dim3{X: 8, Y: 1, Z: 1}, 1),
		Entry("single group", dispatch.Dim3{X: 1, Y: 1, Z: 1}, 1),
		Entry("plane", dispatch.Dim3{X: 8, Y: 2, Z: 1}, 2),
		Entry("volume", dispatch.Dim3{X: 8, Y: 2, Z: 2}, 3),
		Entry("column in Z", dispatch.Dim3{X: 1, Y: 1, Z: 4}, 3),
	)

	It("should count its elements", func() {
		Expect(dispatch.Dim3{X: 3, Y: 4, Z: 5}.Count()).To(Equal(uint64(60)))
	})
})
