package geonames

import (
	"archive/zip"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// Rows follow the published GeoNames layouts.
var (
	citiesFixture = strings.Join([]string{
		"524901\tMoscow\tMoscow\tMOW,Moskau,Moskva,Москва\t55.75222\t37.61556\tP\tPPLC\tRU\t\t48\t\t\t\t10381222\t\t144\tEurope/Moscow\t2022-12-10",
		"1526384\tAlmaty\tAlmaty\tAlma-Ata,Almaty,Алматы\t43.25\t76.91667\tP\tPPLA\tKZ\t\t02\t\t\t\t2000900\t\t786\tAsia/Almaty\t2023-01-01",
		"1496153\tOmsk\t\t\t54.99244\t73.36859\tP\tPPLA\tRU\t\t54\t\t\t\t1129281\t\t94\tAsia/Omsk\t2019-09-05",
		"999\tNowhere\tNowhere\t\tnot-a-number\t0\tP\tPPL\tRU\t\t01\t\t\t\t0\t\t0\tEurope/Moscow\t2020-01-01",
		"1000\tNoAdmin\tNoAdmin\t\t50\t50\tP\tPPL\tKZ\t\t\t\t\t\t100\t\t0\tAsia/Almaty\t2020-01-01",
		"1001\tShort\trow",
	}, "\n") + "\n"

	countriesFixture = strings.Join([]string{
		"# GeoNames country info",
		"#ISO\tISO3\tISO-Numeric\tfips\tCountry\tCapital\tArea(in sq km)\tPopulation\tContinent\ttld\tCurrencyCode\tCurrencyName\tPhone\tPostal Code Format\tPostal Code Regex\tLanguages\tgeonameid\tneighbours\tEquivalentFipsCode",
		"RU\tRUS\t643\tRS\tRussia\tMoscow\t17100000\t144478050\tEU\t.ru\tRUB\tRuble\t7\t######\t^(\\d{6})$\tru,tt,xal\t2017370\tGE,CN\t",
		"KZ\tKAZ\t398\tKZ\tKazakhstan\tAstana\t2717300\t18276499\tAS\t.kz\tKZT\tTenge\t7\t######\t^(\\d{6})$\tkk,ru\t1522867\tTM,CN\t",
		"NA\tNAM\t516\tWA\tNamibia\tWindhoek\t825418\t2448255\tAF\t.na\tNAD\tDollar\t264\t\t\ten-NA,af,de\t3355338\tZA,BW\t",
	}, "\n") + "\n"

	adminFixture = strings.Join([]string{
		"RU.48\tMoscow\tMoscow\t524894",
		"KZ.02\tAlmaty Oblysy\tAlmaty Oblysy\t1537162",
	}, "\n") + "\n"
)

func writeFixtures(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, DefaultCitiesFile), []byte(citiesFixture), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, DefaultCountriesFile), []byte(countriesFixture), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, DefaultAdminFile), []byte(adminFixture), 0644))
	return dir
}

func writeZip(t *testing.T, path, entry, content string) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	w, err := zw.Create(entry)
	require.NoError(t, err)
	_, err = w.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
}
