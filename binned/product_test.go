package binned_test

import (
	"time"

	"github.com/golang/geo/s2"
	. "github.com/onsi/ginkgo"
	"github.com/onsi/ginkgo/extensions/table"
	. "github.com/onsi/gomega"

	"github.com/robert-malhotra/go-l3bin/binned"
	"github.com/robert-malhotra/go-l3bin/store"
)

var _ = Describe("Product", func() {
	var subject *binned.Product

	AfterEach(func() {
		if subject != nil {
			Expect(subject.Close()).To(Succeed())
			subject = nil
		}
	})

	It("should open sparse products", func() {
		var err error
		subject, err = binned.OpenStore(seedScenario(true), "A2008001", binned.WithRowCounts(scenarioRows))
		Expect(err).NotTo(HaveOccurred())

		Expect(subject.Name()).To(Equal("A2008001"))
		Expect(subject.Type()).To(Equal("Test Level-3 Binned Data"))
		Expect(subject.Layout()).To(Equal("sparse"))
		Expect(subject.Width()).To(Equal(8))
		Expect(subject.Height()).To(Equal(4))
		Expect(subject.NumBins()).To(Equal(int64(24)))
		Expect(subject.PreferredTileSize().X).To(Equal(8))
		Expect(subject.PreferredTileSize().Y).To(Equal(binned.TileHeight))
		Expect(subject.AutoGrouping()).To(Equal("adg:aph:atot:bbp:bl_Rrs:chlor_a:Rrs:water"))

		bands := subject.Bands()
		Expect(bands).To(HaveLen(1))
		Expect(bands[0].Name).To(Equal("chl"))
		Expect(bands[0].FillValue).To(Equal(-1.0))
		Expect(bands[0].NoDataUsed).To(BeTrue())
	})

	It("should open dense products", func() {
		var err error
		subject, err = binned.OpenStore(seedScenario(false), "dense", binned.WithRowCounts(scenarioRows))
		Expect(err).NotTo(HaveOccurred())
		Expect(subject.Layout()).To(Equal("dense"))
		Expect(subject.Bands()).To(HaveLen(1))
	})

	It("should read times and metadata", func() {
		var err error
		subject, err = binned.OpenStore(seedScenario(true), "A2008001", binned.WithRowCounts(scenarioRows))
		Expect(err).NotTo(HaveOccurred())

		Expect(subject.StartTime()).To(Equal(time.Date(2008, 1, 1, 12, 30, 0, 0, time.UTC)))
		Expect(subject.EndTime()).To(Equal(time.Date(2008, 1, 31, 23, 59, 0, 0, time.UTC)))

		md := subject.Metadata()
		Expect(md).To(HaveKeyWithValue("title", "Test Level-3 Binned Data"))
		Expect(md).To(HaveKeyWithValue("time_coverage_end", "200801312359Z"))
		md["title"] = "changed"
		Expect(subject.Metadata()).To(HaveKeyWithValue("title", "Test Level-3 Binned Data"))
	})

	It("should provide geocoding", func() {
		var err error
		subject, err = binned.OpenStore(seedScenario(true), "A2008001", binned.WithRowCounts(scenarioRows))
		Expect(err).NotTo(HaveOccurred())

		gc := subject.GeoCoding()
		Expect(gc.Easting).To(Equal(-180.0))
		Expect(gc.Northing).To(Equal(90.0))
		Expect(gc.PixelSizeX).To(Equal(45.0))
		Expect(gc.PixelSizeY).To(Equal(45.0))

		corner := gc.LatLng(0, 0)
		Expect(corner.Lat.Degrees()).To(BeNumerically("~", 90, 1e-9))
		Expect(corner.Lng.Degrees()).To(BeNumerically("~", -180, 1e-9))

		x, y := gc.PixelAt(s2.LatLngFromDegrees(-20, -60))
		Expect(x).To(Equal(2))
		Expect(y).To(Equal(2))
		x, y = gc.PixelAt(s2.LatLngFromDegrees(-90, 180))
		Expect(x).To(Equal(7))
		Expect(y).To(Equal(3))
	})

	It("should be safe to close twice", func() {
		m := seedScenario(true)
		p, err := binned.OpenStore(m, "A2008001", binned.WithRowCounts(scenarioRows))
		Expect(err).NotTo(HaveOccurred())

		Expect(p.Close()).To(Succeed())
		Expect(p.Close()).To(Succeed())
		Expect(m.Closed()).To(BeTrue())
	})

	Describe("grid height", func() {
		It("should use the grid mapping attribute", func() {
			m := seedScenario(false)
			Expect(m.AddVariable("binning_scheme", []string{"one"}, []int32{0}, map[string]interface{}{
				"grid_mapping_name":       "1D Binned Sinusoidal",
				"number_of_latitude_rows": int32(8),
			})).To(Succeed())

			var err error
			subject, err = binned.OpenStore(m, "mapped")
			Expect(err).NotTo(HaveOccurred())
			Expect(subject.Height()).To(Equal(8))
			Expect(subject.Width()).To(Equal(16))
		})

		It("should fall back to the bin_index dimension", func() {
			var err error
			subject, err = binned.OpenStore(seedScenario(false), "dense")
			Expect(err).NotTo(HaveOccurred())
			Expect(subject.Height()).To(Equal(4))
		})

		It("should fall back to the default", func() {
			m := store.NewMem()
			Expect(m.AddVariable("chl", []string{"bins"}, make([]float32, 10), nil)).To(Succeed())

			var err error
			subject, err = binned.OpenStore(m, "plain")
			Expect(err).NotTo(HaveOccurred())
			Expect(subject.Height()).To(Equal(2160))
			Expect(subject.Width()).To(Equal(4320))
		})

		It("should honour WithNumRows", func() {
			var err error
			subject, err = binned.OpenStore(seedScenario(false), "dense", binned.WithNumRows(6))
			Expect(err).NotTo(HaveOccurred())
			Expect(subject.Height()).To(Equal(6))
		})
	})

	Describe("band discovery", func() {
		seed := func() *store.Mem {
			m := store.NewMem()
			Expect(m.AddDimension("bin_index", 4)).To(Succeed())
			Expect(m.AddVariable("chl", []string{"bin_list"}, make([]float32, 8), map[string]interface{}{
				"long_name":  "Chlorophyll concentration",
				"units":      "mg m^-3",
				"_FillValue": float32(-32767),
			})).To(Succeed())
			Expect(m.AddVariable("Rrs_443", []string{"bin_list"}, make([]float32, 8), map[string]interface{}{
				"comment": "reflectance",
				"units":   []byte("sr^-1"),
			})).To(Succeed())
			rrs := make([][]float64, 8)
			for i := range rrs {
				rrs[i] = []float64{float64(i), float64(10 + i)}
			}
			Expect(m.AddVariable("Rrs", []string{"bin_list", "wl"}, rrs, nil)).To(Succeed())
			Expect(m.AddVariable("quality", []string{"bin_list"}, make([]int16, 8), nil)).To(Succeed())
			Expect(m.AddVariable("bl_bin_num", []string{"bin_list"}, make([]int32, 8), nil)).To(Succeed())
			Expect(m.AddVariable("wavelength", []string{"wl"}, []int32{412, 443}, nil)).To(Succeed())
			return m
		}

		It("should find bands along the largest dimension", func() {
			var err error
			subject, err = binned.OpenStore(seed(), "bands")
			Expect(err).NotTo(HaveOccurred())

			var names []string
			for _, b := range subject.Bands() {
				names = append(names, b.Name)
			}
			Expect(names).To(Equal([]string{"chl", "Rrs_443", "Rrs_0", "Rrs_1", "quality"}))
		})

		It("should describe bands", func() {
			var err error
			subject, err = binned.OpenStore(seed(), "bands")
			Expect(err).NotTo(HaveOccurred())

			chl, ok := subject.Band("chl")
			Expect(ok).To(BeTrue())
			Expect(chl).To(Equal(binned.Band{
				Name:        "chl",
				Description: "Chlorophyll concentration",
				Unit:        "mg m^-3",
				FillValue:   -32767,
				NoDataUsed:  true,
				DataType:    binned.Float32,
				Variable:    "chl",
				AuxIndex:    -1,
			}))

			rrs443, _ := subject.Band("Rrs_443")
			Expect(rrs443.Description).To(Equal("reflectance"))
			Expect(rrs443.Unit).To(Equal("sr^-1"))
			Expect(rrs443.Wavelength).To(Equal(443))
			Expect(rrs443.NoDataUsed).To(BeFalse())
			Expect(rrs443.FillValue).To(BeZero())

			rrs1, _ := subject.Band("Rrs_1")
			Expect(rrs1.Variable).To(Equal("Rrs"))
			Expect(rrs1.AuxIndex).To(Equal(1))
			Expect(rrs1.DataType).To(Equal(binned.Float64))

			quality, _ := subject.Band("quality")
			Expect(quality.DataType).To(Equal(binned.Int32))

			_, ok = subject.Band("bl_bin_num")
			Expect(ok).To(BeFalse())
		})

		It("should reject two auxiliary dimensions", func() {
			m := seed()
			cube := make([][][]float32, 8)
			for i := range cube {
				cube[i] = [][]float32{{1, 2, 3}, {4, 5, 6}}
			}
			Expect(m.AddVariable("cube", []string{"bin_list", "wl", "angle"}, cube, nil)).To(Succeed())

			_, err := binned.OpenStore(m, "cube")
			Expect(err).To(MatchError(binned.ErrFormat))
			Expect(m.Closed()).To(BeTrue())
		})

		It("should reject two bin dimensions", func() {
			m := seed()
			square := make([][]float32, 8)
			for i := range square {
				square[i] = make([]float32, 8)
			}
			Expect(m.AddVariable("square", []string{"bin_list", "bin_list"}, square, nil)).To(Succeed())

			_, err := binned.OpenStore(m, "square")
			Expect(err).To(MatchError(binned.ErrFormat))
		})
	})

	Describe("failed opens", func() {
		It("should fail without bands", func() {
			m := store.NewMem()
			Expect(m.AddDimension("bin_index", 4)).To(Succeed())
			Expect(m.AddVariable("x", []string{"small"}, []int32{1, 2}, nil)).To(Succeed())

			p, err := binned.OpenStore(m, "empty")
			Expect(err).To(MatchError(binned.ErrNoBands))
			Expect(p).To(BeNil())
			Expect(m.Closed()).To(BeTrue())
		})

		It("should fail on inconsistent sparse indexes", func() {
			m := seedScenario(true)
			broken := store.NewMem()
			for _, name := range m.Variables() {
				v, _ := m.Variable(name)
				values, err := v.ReadAll()
				Expect(err).NotTo(HaveOccurred())
				dims := []string{v.Dimensions()[0].Name}
				if name == "bi_extent" {
					values = []int32{0, 8, 0}
					dims = []string{"short"}
				}
				Expect(broken.AddVariable(name, dims, values, nil)).To(Succeed())
			}

			_, err := binned.OpenStore(broken, "broken", binned.WithRowCounts(scenarioRows))
			Expect(err).To(MatchError(binned.ErrCorruptIndex))
			Expect(err).To(MatchError(binned.ErrFormat))
			Expect(broken.Closed()).To(BeTrue())
		})

		It("should fail on missing files", func() {
			_, err := binned.Open(testdataPath("does-not-exist.nc"))
			Expect(err).To(HaveOccurred())
		})
	})

	table.DescribeTable("wavelength from band name",
		func(name string, expected int) {
			Expect(binned.WavelengthFromName(name)).To(Equal(expected))
		},
		table.Entry("plain", "chlor_a", 0),
		table.Entry("suffix", "Rrs_443", 443),
		table.Entry("middle", "bl_Rrs_555_mean", 555),
		table.Entry("first wins", "x_412_443", 412),
		table.Entry("no parts", "Rrs443", 0),
	)

	table.DescribeTable("time attributes",
		func(value interface{}, expected time.Time) {
			m := store.NewMem()
			if value != nil {
				m.SetAttribute("time_coverage_start", value)
			}
			Expect(binned.ParseTime(m, "time_coverage_start")).To(Equal(expected))
		},
		table.Entry("minutes", "200801011230Z", time.Date(2008, 1, 1, 12, 30, 0, 0, time.UTC)),
		table.Entry("seconds ignored", "20080101123045Z", time.Date(2008, 1, 1, 12, 30, 0, 0, time.UTC)),
		table.Entry("byte string", []byte("201212311159Z"), time.Date(2012, 12, 31, 11, 59, 0, 0, time.UTC)),
		table.Entry("missing", nil, time.Time{}),
		table.Entry("malformed", "2008-01-01T12:30Z", time.Time{}),
		table.Entry("not a string", int32(5), time.Time{}),
	)
})
