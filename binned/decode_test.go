package binned_test

import (
	"image"
	"math"
	"sync"
	"time"

	"github.com/golang/geo/s2"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/robert-malhotra/go-l3bin/binned"
	"github.com/robert-malhotra/go-l3bin/internal/grid"
	"github.com/robert-malhotra/go-l3bin/store"
)

var scenarioRaster = binned.Float32Buffer{
	-1, -1, -1, -1, -1, -1, -1, -1,
	-1, -1, -1, -1, -1, -1, -1, -1,
	10, 11, 12, 13, 14, 15, 16, 17,
	-1, -1, -1, -1, -1, -1, -1, -1,
}

var _ = Describe("Decode", func() {
	var full = image.Rect(0, 0, 8, 4)
	var unit = image.Pt(1, 1)

	Context("scenario", func() {
		var m *store.Mem
		var subject *binned.Product

		BeforeEach(func() {
			var err error
			m = seedScenario(true)
			subject, err = binned.OpenStore(m, "scenario", binned.WithRowCounts(scenarioRows))
			Expect(err).NotTo(HaveOccurred())
		})

		AfterEach(func() {
			Expect(subject.Close()).To(Succeed())
		})

		It("should decode sparse rows", func() {
			buf, err := subject.DecodeRegion("chl", full, unit, binned.Float32)
			Expect(err).NotTo(HaveOccurred())
			Expect(buf).To(Equal(scenarioRaster))
		})

		It("should decode into int32 buffers", func() {
			buf, err := subject.DecodeRegion("chl", image.Rect(0, 1, 8, 3), unit, binned.Int32)
			Expect(err).NotTo(HaveOccurred())
			Expect(buf).To(Equal(binned.Int32Buffer{
				-1, -1, -1, -1, -1, -1, -1, -1,
				10, 11, 12, 13, 14, 15, 16, 17,
			}))
		})

		It("should decode into caller buffers", func() {
			buf := make(binned.Float32Buffer, 3)
			Expect(subject.DecodeRegionInto("chl", image.Rect(2, 2, 5, 3), unit, buf)).To(Succeed())
			Expect(buf).To(Equal(binned.Float32Buffer{12, 13, 14}))

			err := subject.DecodeRegionInto("chl", image.Rect(2, 2, 5, 3), unit, make(binned.Float32Buffer, 4))
			Expect(err).To(MatchError(binned.ErrBufferSize))
		})

		It("should reject sub-sampling", func() {
			for _, step := range []image.Point{{2, 1}, {1, 2}, {2, 2}, {0, 1}} {
				buf, err := subject.DecodeRegion("chl", full, step, binned.Float32)
				Expect(err).To(MatchError(binned.ErrUnsupportedSubsampling))
				Expect(buf).To(BeNil())

				err = subject.DecodeRegionInto("chl", full, step, make(binned.Float32Buffer, 32))
				Expect(err).To(MatchError(binned.ErrUnsupportedSubsampling))
			}
			Expect(m.Reads("chl")).To(BeZero())
		})

		It("should reject unsupported buffer types", func() {
			_, err := subject.DecodeRegion("chl", full, unit, binned.Float64)
			Expect(err).To(MatchError(binned.ErrFormat))
		})

		It("should reject unknown bands", func() {
			_, err := subject.DecodeRegion("sst", full, unit, binned.Float32)
			Expect(err).To(MatchError(binned.ErrUnknownBand))
			_, err = subject.ValueAt("sst", s2.LatLngFromDegrees(0, 0))
			Expect(err).To(MatchError(binned.ErrUnknownBand))
		})

		It("should not read empty rows", func() {
			_, err := subject.DecodeRegion("chl", image.Rect(0, 0, 8, 2), unit, binned.Float32)
			Expect(err).NotTo(HaveOccurred())
			_, err = subject.DecodeRegion("chl", image.Rect(0, 3, 8, 4), unit, binned.Float32)
			Expect(err).NotTo(HaveOccurred())
			Expect(m.Reads("chl")).To(BeZero())
		})

		It("should look up single bins", func() {
			v, err := subject.ValueAt("chl", s2.LatLngFromDegrees(-20, -60))
			Expect(err).NotTo(HaveOccurred())
			Expect(v).To(Equal(float32(12)))

			x, y := subject.GeoCoding().PixelAt(s2.LatLngFromDegrees(-20, -60))
			buf, err := subject.DecodeRegion("chl", image.Rect(x, y, x+1, y+1), unit, binned.Float32)
			Expect(err).NotTo(HaveOccurred())
			Expect(buf).To(Equal(binned.Float32Buffer{12}))

			v, err = subject.ValueAt("chl", s2.LatLngFromDegrees(60, 0))
			Expect(err).NotTo(HaveOccurred())
			Expect(v).To(Equal(float32(-1)))
		})

		It("should fail after close", func() {
			Expect(subject.Close()).To(Succeed())
			Expect(m.Closed()).To(BeTrue())

			_, err := subject.DecodeRegion("chl", full, unit, binned.Float32)
			Expect(err).To(MatchError(binned.ErrClosed))
			_, err = subject.ValueAt("chl", s2.LatLngFromDegrees(-20, -60))
			Expect(err).To(MatchError(binned.ErrClosed))
		})

		It("should decode concurrently", func() {
			var wg sync.WaitGroup
			results := make([]binned.Buffer, 8)
			errs := make([]error, 8)
			for i := range results {
				wg.Add(1)
				go func(i int) {
					defer GinkgoRecover()
					defer wg.Done()
					results[i], errs[i] = subject.DecodeRegion("chl", full, unit, binned.Float32)
				}(i)
			}
			wg.Wait()
			for i := range results {
				Expect(errs[i]).NotTo(HaveOccurred())
				Expect(results[i]).To(Equal(scenarioRaster))
			}
		})
	})

	It("should decode dense rows", func() {
		p, err := binned.OpenStore(seedScenario(false), "dense", binned.WithRowCounts(scenarioRows))
		Expect(err).NotTo(HaveOccurred())
		defer p.Close()

		buf, err := p.DecodeRegion("chl", full, unit, binned.Float32)
		Expect(err).NotTo(HaveOccurred())
		Expect(buf).To(Equal(scenarioRaster))
	})

	It("should decode multi-dimensional bands", func() {
		m := seedScenario(true)
		rrs := make([][]float32, 8)
		for i := range rrs {
			rrs[i] = []float32{float32(i), float32(100 + i)}
		}
		Expect(m.AddVariable("Rrs", []string{"bin_list", "wl"}, rrs, nil)).To(Succeed())

		p, err := binned.OpenStore(m, "rrs", binned.WithRowCounts(scenarioRows))
		Expect(err).NotTo(HaveOccurred())
		defer p.Close()

		// no _FillValue: 0 marks missing data
		buf, err := p.DecodeRegion("Rrs_1", image.Rect(0, 2, 8, 3), unit, binned.Float32)
		Expect(err).NotTo(HaveOccurred())
		Expect(buf).To(Equal(binned.Float32Buffer{100, 101, 102, 103, 104, 105, 106, 107}))

		buf, err = p.DecodeRegion("Rrs_0", image.Rect(0, 2, 8, 3), unit, binned.Float32)
		Expect(err).NotTo(HaveOccurred())
		Expect(buf).To(Equal(binned.Float32Buffer{0, 1, 2, 3, 4, 5, 6, 7}))
	})

	Describe("layouts", func() {
		var g *grid.Grid
		var values map[int64]float32

		BeforeEach(func() {
			var err error
			g, err = grid.New(16)
			Expect(err).NotTo(HaveOccurred())
			values = seedValues(g, 5)
		})

		It("should decode dense and sparse products alike", func() {
			sparse, err := binned.OpenStore(seedProduct(true, g, float32(math.NaN()), values), "sparse")
			Expect(err).NotTo(HaveOccurred())
			defer sparse.Close()
			dense, err := binned.OpenStore(seedProduct(false, g, float32(math.NaN()), values), "dense")
			Expect(err).NotTo(HaveOccurred())
			defer dense.Close()

			Expect(sparse.Height()).To(Equal(16))
			Expect(dense.Height()).To(Equal(16))

			for _, r := range []image.Rectangle{
				image.Rect(0, 0, 32, 16),
				image.Rect(3, 2, 19, 9),
				image.Rect(31, 0, 32, 16),
				image.Rect(0, 15, 32, 16),
			} {
				sb, err := sparse.DecodeRegion("chl", r, unit, binned.Float32)
				Expect(err).NotTo(HaveOccurred())
				db, err := dense.DecodeRegion("chl", r, unit, binned.Float32)
				Expect(err).NotTo(HaveOccurred())

				s, d := sb.(binned.Float32Buffer), db.(binned.Float32Buffer)
				Expect(s).To(HaveLen(len(d)))
				for i := range s {
					if math.IsNaN(float64(d[i])) {
						Expect(math.IsNaN(float64(s[i]))).To(BeTrue(), "region %v pixel %d", r, i)
					} else {
						Expect(s[i]).To(Equal(d[i]), "region %v pixel %d", r, i)
					}
				}
			}
		})

		It("should assemble tiles like the full raster", func() {
			p, err := binned.OpenStore(seedProduct(true, g, -1, values), "tiles")
			Expect(err).NotTo(HaveOccurred())
			defer p.Close()

			whole, err := p.DecodeRegion("chl", image.Rect(0, 0, 32, 16), unit, binned.Float32)
			Expect(err).NotTo(HaveOccurred())
			all := whole.(binned.Float32Buffer)

			for ty := 0; ty < 16; ty += 4 {
				for tx := 0; tx < 32; tx += 8 {
					tile, err := p.DecodeRegion("chl", image.Rect(tx, ty, tx+8, ty+4), unit, binned.Float32)
					Expect(err).NotTo(HaveOccurred())
					t := tile.(binned.Float32Buffer)
					for y := 0; y < 4; y++ {
						for x := 0; x < 8; x++ {
							Expect(t[8*y+x]).To(Equal(all[32*(ty+y)+tx+x]))
						}
					}
				}
			}
		})

		It("should give the same result with and without cache", func() {
			cm := seedProduct(true, g, -1, values)
			cached, err := binned.OpenStore(cm, "cached", binned.WithCacheTTL(time.Minute))
			Expect(err).NotTo(HaveOccurred())
			defer cached.Close()

			um := seedProduct(true, g, -1, values)
			uncached, err := binned.OpenStore(um, "uncached", binned.WithoutCache())
			Expect(err).NotTo(HaveOccurred())
			defer uncached.Close()

			r := image.Rect(0, 0, 32, 16)
			for i := 0; i < 3; i++ {
				cb, err := cached.DecodeRegion("chl", r, unit, binned.Float32)
				Expect(err).NotTo(HaveOccurred())
				ub, err := uncached.DecodeRegion("chl", r, unit, binned.Float32)
				Expect(err).NotTo(HaveOccurred())
				Expect(cb).To(Equal(ub))
			}
			Expect(cm.Reads("chl")).To(BeNumerically(">", 0))
			Expect(cm.Reads("chl")).To(BeNumerically("<", um.Reads("chl")))
			Expect(um.Reads("chl")).To(Equal(3 * cm.Reads("chl")))
		})

		It("should read again once cached rows expire", func() {
			m := seedProduct(true, g, -1, values)
			p, err := binned.OpenStore(m, "expiring",
				binned.WithCacheTTL(time.Millisecond), binned.WithSweepInterval(time.Millisecond))
			Expect(err).NotTo(HaveOccurred())
			defer p.Close()

			r := image.Rect(0, 0, 32, 16)
			first, err := p.DecodeRegion("chl", r, unit, binned.Float32)
			Expect(err).NotTo(HaveOccurred())
			reads := m.Reads("chl")
			Expect(reads).To(BeNumerically(">", 0))

			time.Sleep(20 * time.Millisecond)
			second, err := p.DecodeRegion("chl", r, unit, binned.Float32)
			Expect(err).NotTo(HaveOccurred())
			Expect(second).To(Equal(first))
			Expect(m.Reads("chl")).To(Equal(2 * reads))
		})
	})

	It("should decode NetCDF files", func() {
		if !hasTestdata("binned_sparse.nc") {
			Skip("testdata/binned_sparse.nc not found")
		}
		p, err := binned.Open(testdataPath("binned_sparse.nc"))
		Expect(err).NotTo(HaveOccurred())
		defer p.Close()

		Expect(p.Layout()).To(Equal("sparse"))
		Expect(p.Bands()).NotTo(BeEmpty())

		band := p.Bands()[0]
		tile := p.PreferredTileSize()
		buf, err := p.DecodeRegion(band.Name, image.Rect(0, 0, tile.X, min(tile.Y, p.Height())), unit, binned.Float32)
		Expect(err).NotTo(HaveOccurred())
		Expect(buf.Len()).To(Equal(tile.X * min(tile.Y, p.Height())))
	})
})
