/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package fonts

import (
	"slices"
	"strings"

	"golang.org/x/text/cases"
)

// popular is requested as one batch at startup. It covers Thai and Latin.
var popular = []string{
	// Thai
	"Sarabun", "Prompt", "Kanit", "Mitr", "Pridi", "Chakra Petch", "Bai Jamjuree",
	"K2D", "Niramit", "Krub", "Kodchasan", "KoHo", "Charm", "Charmonman",
	"Fahkwang", "Srisakdi", "Thasadith", "Mali", "Athiti", "Itim", "Chonburi",
	"Maitree", "Taviraj", "Trirong", "Pattaya", "Sriracha", "Noto Sans Thai",
	"Noto Serif Thai", "Noto Sans Thai Looped", "IBM Plex Sans Thai",
	"IBM Plex Sans Thai Looped", "Anuphan",
	// Latin
	"Roboto", "Open Sans", "Lato", "Montserrat", "Poppins", "Inter", "Raleway",
	"Oswald", "Nunito", "Playfair Display", "Merriweather", "Source Sans 3",
	"Work Sans", "Rubik", "Noto Sans", "Noto Serif", "PT Sans", "Ubuntu",
	"Lora", "Bebas Neue",
}

// additional fonts are loaded on first selection.
var additional = []string{
	"ABeeZee", "Abel", "Abril Fatface", "Aclonica", "Acme", "Actor", "Adamina",
	"Advent Pro", "Aguafina Script", "Akronim", "Aladin", "Alata", "Alatsi",
	"Aldrich", "Alef", "Alegreya", "Alegreya Sans", "Alegreya Sans SC",
	"Alex Brush", "Alfa Slab One", "Alice", "Alike", "Alike Angular", "Allan",
	"Allerta", "Allerta Stencil", "Allura", "Almarai", "Almendra", "Amarante",
	"Amaranth", "Amatic SC", "Amethysta", "Amiko", "Amiri", "Amita", "Anaheim",
	"Andada Pro", "Andika", "Annie Use Your Telescope", "Anonymous Pro", "Antic",
	"Antic Didone", "Antic Slab", "Anton", "Arapey", "Arbutus Slab",
	"Architects Daughter", "Archivo", "Archivo Black", "Archivo Narrow",
	"Arimo", "Arizonia", "Armata", "Arsenal", "Artifika", "Arvo", "Arya",
	"Asap", "Asap Condensed", "Asar", "Asset", "Assistant", "Astloch", "Asul",
	"Atkinson Hyperlegible", "Atma", "Audiowide", "Autour One", "Average",
	"Average Sans", "Averia Libre", "Averia Serif Libre", "B612", "B612 Mono",
	"Bad Script", "Bahiana", "Bahianita", "Balsamiq Sans", "Baloo 2",
	"Baloo Bhai 2", "Bangers", "Barlow", "Barlow Condensed", "Barlow Semi Condensed",
	"Barriecito", "Barrio", "Basic", "Baskervville", "Baumans", "Be Vietnam Pro",
	"Belgrano", "Bellefair", "Belleza", "Bellota", "Bellota Text", "BenchNine",
	"Benne", "Bentham", "Berkshire Swash", "Big Shoulders Display", "Bigshot One",
	"Bilbo", "Bitter", "Black Han Sans", "Black Ops One", "Blinker",
	"Bodoni Moda", "Bonbon", "Boogaloo", "Bowlby One", "Bowlby One SC",
	"Brawler", "Bree Serif", "Bubblegum Sans", "Bubbler One", "Buda",
	"Buenard", "Bungee", "Bungee Inline", "Bungee Shade", "Butcherman",
	"Butterfly Kids", "Cabin", "Cabin Condensed", "Cabin Sketch", "Caladea",
	"Calistoga", "Calligraffitti", "Cambay", "Cambo", "Candal", "Cantarell",
	"Cantata One", "Cantora One", "Capriola", "Cardo", "Carme", "Carrois Gothic",
	"Carter One", "Castoro", "Catamaran", "Caudex", "Caveat", "Caveat Brush",
	"Cedarville Cursive", "Ceviche One", "Changa",
	"Changa One", "Chango", "Charis SIL", "Chathura", "Chau Philomene One",
	"Chela One", "Chelsea Market", "Cherry Cream Soda", "Cherry Swash", "Chewy",
	"Chicle", "Chivo", "Chivo Mono", "Cinzel", "Cinzel Decorative", "Clicker Script",
	"Coda", "Codystar", "Coiny", "Combo", "Comfortaa", "Comic Neue",
	"Coming Soon", "Commissioner", "Concert One", "Condiment", "Contrail One",
	"Convergence", "Cookie", "Copse", "Corben", "Cormorant", "Cormorant Garamond",
	"Cormorant Infant", "Cormorant SC", "Cormorant Unicase", "Courgette",
	"Courier Prime", "Cousine", "Coustard", "Covered By Your Grace",
	"Crafty Girls", "Creepster", "Crete Round", "Crimson Pro", "Crimson Text",
	"Croissant One", "Crushed", "Cuprum", "Cute Font", "Cutive", "Cutive Mono",
	"DM Mono", "DM Sans", "DM Serif Display", "DM Serif Text", "Damion",
	"Dancing Script", "Darker Grotesque", "David Libre", "Dawning of a New Day",
	"Days One", "Delius", "Della Respira", "Denk One", "Devonshire", "Didact Gothic",
	"Diplomata", "Do Hyeon", "Dokdo", "Domine", "Donegal One", "Dongle",
	"Doppio One", "Dorsa", "Dosis", "Dr Sugiyama", "Duru Sans", "Dynalight",
	"EB Garamond", "Eagle Lake", "Eater", "Economica", "Eczar", "El Messiri",
	"Electrolize", "Elsie", "Encode Sans", "Encode Sans Condensed", "Engagement",
	"Englebert", "Enriqueta", "Epilogue", "Erica One", "Esteban", "Euphoria Script",
	"Ewert", "Exo", "Exo 2", "Expletus Sans", "Fanwood Text", "Farro", "Farsan",
	"Fascinate", "Fauna One", "Faustina", "Federant", "Federo", "Felipa", "Fenix",
	"Figtree", "Finger Paint", "Fira Code", "Fira Mono", "Fira Sans",
	"Fira Sans Condensed", "Fjalla One", "Fjord One", "Flamenco", "Flavors",
	"Fondamento", "Forum", "Francois One", "Frank Ruhl Libre", "Fraunces",
	"Freckle Face", "Fredericka the Great", "Fredoka", "Fresca", "Frijole",
	"Fugaz One", "Gaegu", "Galada", "Galdeano", "Galindo", "Gelasio", "Gentium Book Plus",
	"Geo", "Georama", "Gideon Roman", "Gilda Display", "Give You Glory",
	"Glass Antiqua", "Glegoo", "Gloria Hallelujah", "Goblin One", "Gochi Hand",
	"Gothic A1", "Goudy Bookletter 1911", "Gowun Batang", "Graduate",
	"Grand Hotel", "Gravitas One", "Great Vibes", "Grenze", "Griffy", "Gruppo",
	"Gudea", "Gugi", "Gupter", "Habibi", "Hachi Maru Pop", "Halant", "Hammersmith One",
	"Handlee", "Hanuman", "Happy Monkey", "Harmattan", "Headland One", "Heebo",
	"Henny Penny", "Hepta Slab", "Hind", "Hind Madurai", "Hind Siliguri",
	"Holtwood One SC", "Homemade Apple", "Homenaje", "IBM Plex Mono", "IBM Plex Sans",
	"IBM Plex Serif", "Iceberg", "Iceland", "Imbue", "Imprima", "Inconsolata",
	"Inder", "Indie Flower", "Inika", "Inknut Antiqua", "Inria Sans", "Inria Serif",
	"Inter Tight", "Irish Grover", "Istok Web", "Italiana", "Italianno",
	"JetBrains Mono", "Jaldi", "Jim Nightshade", "Jockey One", "Jolly Lodger",
	"Josefin Sans", "Josefin Slab", "Joti One", "Jua", "Judson", "Julee",
	"Julius Sans One", "Junge", "Jura", "Just Another Hand", "Kadwa", "Kalam",
	"Kameron", "Karla", "Karma", "Kaushan Script", "Kavoon", "Keania One",
	"Kelly Slab", "Kenia", "Khand", "Khula", "Kite One", "Knewave", "Kosugi Maru",
	"Kotta One", "Kreon", "Kristi", "Krona One", "Kufam", "Kumbh Sans",
	"La Belle Aurore", "Lacquer", "Laila", "Lakki Reddy", "Lalezar", "Lancelot",
	"League Gothic", "League Spartan", "Leckerli One", "Ledger", "Lekton",
	"Lemon", "Lexend", "Lexend Deca", "Libre Barcode 39", "Libre Baskerville",
	"Libre Bodoni", "Libre Caslon Text", "Libre Franklin", "Life Savers",
	"Lilita One", "Limelight", "Linden Hill", "Literata", "Livvic", "Lobster",
	"Lobster Two", "Londrina Solid", "Long Cang", "Lustria", "Luxurious Roman",
	"M PLUS 1p", "M PLUS Rounded 1c", "Ma Shan Zheng", "Macondo", "Magra",
	"Mako", "Manjari", "Manrope", "Mansalva", "Marcellus", "Marck Script",
	"Marmelad", "Martel", "Martel Sans", "Marvel", "Mate", "Maven Pro",
	"McLaren", "Meddon", "MedievalSharp", "Merienda", "Merriweather Sans",
	"Metrophobic", "Michroma", "Milonga", "Miniver", "Mirza", "Miriam Libre",
	"Modak", "Molengo", "Monda", "Monoton", "Montserrat Alternates", "Mukta",
	"Mulish", "Murecho", "Nanum Gothic", "Nanum Myeongjo", "Nanum Pen Script",
	"Neucha", "Neuton", "News Cycle", "Newsreader", "Niconne", "Nixie One",
	"Nobile", "Norican", "Nothing You Could Do", "Noticia Text", "Noto Color Emoji",
	"Noto Kufi Arabic", "Noto Naskh Arabic", "Noto Sans JP", "Noto Sans KR",
	"Noto Sans Mono", "Noto Sans SC", "Noto Serif JP", "Nova Mono", "Numans",
	"Nunito Sans", "Old Standard TT", "Oleo Script", "Orbitron", "Oregano",
	"Orienta", "Outfit", "Overlock", "Overpass", "Overpass Mono", "Oxanium",
	"Oxygen", "PT Mono", "PT Sans Caption", "PT Sans Narrow", "PT Serif",
	"Pacifico", "Padauk", "Palanquin", "Parisienne", "Passion One", "Pathway Gothic One",
	"Patrick Hand", "Patua One", "Paytone One", "Permanent Marker", "Petit Formal Script",
	"Philosopher", "Piazzolla", "Pinyon Script", "Plaster", "Play", "Playball",
	"Plus Jakarta Sans", "Podkova", "Poiret One", "Pontano Sans", "Port Lligat Sans",
	"Pragati Narrow", "Press Start 2P", "Proza Libre", "Public Sans", "Puritan",
	"Quattrocento", "Quattrocento Sans", "Questrial", "Quicksand", "Radley",
	"Rajdhani", "Rakkas", "Raleway Dots", "Rammetto One", "Red Hat Display",
	"Red Hat Text", "Reenie Beanie", "Righteous", "Roboto Condensed", "Roboto Flex",
	"Roboto Mono", "Roboto Serif", "Roboto Slab", "Rochester", "Rock Salt",
	"Rokkitt", "Ropa Sans", "Rosario", "Rozha One", "Rubik Mono One", "Ruda",
	"Russo One", "Sacramento", "Sahitya", "Sail", "Saira", "Saira Condensed",
	"Sanchez", "Sansita", "Satisfy", "Schoolbell", "Secular One", "Sedgwick Ave",
	"Sen", "Shadows Into Light", "Shadows Into Light Two", "Shrikhand", "Signika",
	"Signika Negative", "Silkscreen", "Simonetta", "Sintony", "Six Caps", "Slabo 27px",
	"Sofia", "Sora", "Source Code Pro", "Source Serif 4", "Space Grotesk",
	"Space Mono", "Special Elite", "Spectral", "Spinnaker", "Staatliches",
	"Stint Ultra Condensed", "Stoke", "Sue Ellen Francisco", "Sulphur Point",
	"Sunflower", "Syncopate", "Syne", "Tajawal", "Tangerine", "Teko", "Tenor Sans",
	"Text Me One", "Tinos", "Titan One", "Titillium Web", "Trocchi", "Trykker",
	"Ultra", "Unbounded", "Uncial Antiqua", "Unica One", "Unna", "Urbanist",
	"VT323", "Varela", "Varela Round", "Vast Shadow", "Vidaloka", "Viga",
	"Volkhov", "Vollkorn", "Voltaire", "Waiting for the Sunrise", "Wallpoet",
	"Wix Madefor Display", "Yanone Kaffeesatz", "Yantramanav", "Yellowtail",
	"Yeseva One", "Yrsa", "Zen Maru Gothic", "Zeyada", "Zilla Slab",
}

// Catalog is the searchable list of families offered in the font picker.
type Catalog struct {
	popular    []string
	additional []string
	isPopular  map[string]bool
}

// DefaultCatalog returns the built-in catalog.
func DefaultCatalog() *Catalog { return NewCatalog(popular, additional) }

// NewCatalog builds a catalog. Additional entries that duplicate a popular
// family, or each other, are dropped.
func NewCatalog(pop, add []string) *Catalog {
	c := &Catalog{isPopular: make(map[string]bool, len(pop))}
	seen := make(map[string]bool, len(pop)+len(add))
	for _, f := range pop {
		if f = strings.TrimSpace(f); f == "" || seen[f] {
			continue
		}
		seen[f] = true
		c.isPopular[f] = true
		c.popular = append(c.popular, f)
	}
	for _, f := range add {
		if f = strings.TrimSpace(f); f == "" || seen[f] {
			continue
		}
		seen[f] = true
		c.additional = append(c.additional, f)
	}
	return c
}

func (c *Catalog) Popular() []string    { return slices.Clone(c.popular) }
func (c *Catalog) Additional() []string { return slices.Clone(c.additional) }

// IsPopular reports whether family belongs to the startup batch.
func (c *Catalog) IsPopular(family string) bool { return c.isPopular[family] }

// Search returns families containing query, case-insensitively, popular
// families first. An empty query returns everything.
func (c *Catalog) Search(query string) []string {
	fold := cases.Fold()
	q := fold.String(strings.TrimSpace(query))
	var out []string
	for _, list := range [][]string{c.popular, c.additional} {
		for _, f := range list {
			if q == "" || strings.Contains(fold.String(f), q) {
				out = append(out, f)
			}
		}
	}
	return out
}
