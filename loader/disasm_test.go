package loader_test

import (
	"errors"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/wavesim/loader"
)

const listing = `
<stdin>:	file format elf64-amdgpu

Disassembly of section .text:

0000000000001600 <E_4>:
	s_load_b64 s[0:1], s[0:1], null                            // 000000001600: F4040000 F8000000
	v_dual_mov_b32 v0, 0 :: v_dual_mov_b32 v1, 4               // 000000001608: CA100080 00000084
	s_endpgm                                                   // 000000001610: BFB00000

0000000000001700 <r_2>:
	v_add_f32_e32 v0, 0x40490fdb, v0                           // 000000001700: 060000FF 40490FDB
	s_endpgm                                                   // 000000001708: BFB00000
`

var _ = Describe("ParseDisassembly", func() {
	It("should collect the words of each kernel", func() {
		obj, err := loader.ParseDisassembly(strings.NewReader(listing))

		Expect(err).NotTo(HaveOccurred())
		Expect(obj.Names()).To(Equal([]string{"E_4", "r_2"}))
		Expect(obj.Kernels[0].Addr).To(Equal(uint64(0x1600)))
		Expect(obj.Kernels[0].Code).To(Equal([]uint32{
			0xF4040000, 0xF8000000, 0xCA100080, 0x00000084, 0xBFB00000,
		}))
		Expect(obj.Kernels[1].Code).To(Equal([]uint32{0x060000FF, 0x40490FDB, 0xBFB00000}))
	})

	It("should ignore hex-looking operands outside the comment", func() {
		obj, err := loader.ParseDisassembly(strings.NewReader(
			"0000000000000000 <k>:\n" +
				"\ts_mov_b32 s0, deadbeef // 000000000000: BE8000FF DEADBEEF\n"))

		Expect(err).NotTo(HaveOccurred())
		Expect(obj.Kernels[0].Code).To(Equal([]uint32{0xBE8000FF, 0xDEADBEEF}))
	})

	It("should reject instructions before a kernel label", func() {
		_, err := loader.ParseDisassembly(strings.NewReader(
			"\ts_endpgm // 000000001610: BFB00000\n"))

		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("line 1"))
	})

	It("should fail on a listing without kernels", func() {
		_, err := loader.ParseDisassembly(strings.NewReader("Disassembly of section .text:\n"))

		Expect(errors.Is(err, loader.ErrKernelNotFound)).To(BeTrue())
	})
})
