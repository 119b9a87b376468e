package converter

import (
	"bytes"
	"path/filepath"
	"sort"

	"github.com/binzume/fbxscene/fbx"
	"github.com/binzume/fbxscene/geom"
	"github.com/binzume/fbxscene/mesh"
	"github.com/binzume/fbxscene/texture"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"go.uber.org/zap"
)

type FBXToGLTFOption struct {
	Scale      float32 // Default: 1
	ForceUnlit bool

	TextureReCompress      bool
	TextureResolutionLimit int // 0: unlimited
	TextureScale           float32

	Logger *zap.Logger
}

type textureEntry struct {
	id  *uint32
	err error
}

type fbxToGltf struct {
	*FBXToGLTFOption
	*gltf.Document
	scene     *fbx.Scene
	nodes     map[int64]uint32 // Model uid -> node
	materials map[int64]uint32
	textures  map[int64]textureEntry
	images    *texture.Cache
}

func NewFBXToGLTFConverter(options *FBXToGLTFOption) *fbxToGltf {
	if options == nil {
		options = &FBXToGLTFOption{}
	}
	if options.Scale == 0 {
		options.Scale = 1
	}
	if options.TextureScale == 0 {
		options.TextureScale = 1.0
	}
	if options.Logger == nil {
		options.Logger = zap.NewNop()
	}
	return &fbxToGltf{
		FBXToGLTFOption: options,
		Document:        gltf.NewDocument(),
		nodes:           map[int64]uint32{},
		materials:       map[int64]uint32{},
		textures:        map[int64]textureEntry{},
	}
}

func (m *fbxToGltf) addMatrices(mat [][4][4]float32) uint32 {
	a := make([][4]float32, len(mat)*4)
	for i, m := range mat {
		a[i*4+0] = m[0]
		a[i*4+1] = m[1]
		a[i*4+2] = m[2]
		a[i*4+3] = m[3]
	}
	acc := modeler.WriteTangent(m.Document, a)
	m.Accessors[acc].Type = gltf.AccessorMat4
	m.Accessors[acc].Count /= 4
	m.BufferViews[*m.Accessors[acc].BufferView].ByteStride *= 4
	return acc
}

// addModelNodes creates one node per Model, linked by the Model hierarchy.
func (m *fbxToGltf) addModelNodes() {
	for _, model := range m.scene.Objects.Models {
		node := &gltf.Node{Name: model.Name}
		geom.ScaleTranslation(model.LocalMatrix(), m.Scale).ToArray(node.Matrix[:])
		m.nodes[model.UID] = uint32(len(m.Nodes))
		m.Nodes = append(m.Nodes, node)
	}
	for _, model := range m.scene.Objects.Models {
		id := m.nodes[model.UID]
		if parent := model.ParentModel(); parent != nil {
			p := m.Nodes[m.nodes[parent.UID]]
			p.Children = append(p.Children, id)
		} else {
			m.Scenes[0].Nodes = append(m.Scenes[0].Nodes, id)
		}
	}
}

func (m *fbxToGltf) addTexture(tex *fbx.Object) (*uint32, error) {
	if e, ok := m.textures[tex.UID]; ok {
		return e.id, e.err
	}
	id, err := m.writeTexture(tex)
	m.textures[tex.UID] = textureEntry{id: id, err: err}
	return id, err
}

func (m *fbxToGltf) writeTexture(tex *fbx.Object) (*uint32, error) {
	img, err := m.images.Image(tex)
	if err != nil {
		return nil, err
	}
	name := texture.Name(tex)
	mime := texture.MimeType(name)
	scale := m.TextureScale
	if !m.TextureReCompress && m.TextureResolutionLimit == 0 {
		scale = 1
	}
	r, err := texture.Encode(img, mime, scale, m.TextureResolutionLimit)
	if err != nil {
		return nil, err
	}
	src, err := modeler.WriteImage(m.Document, filepath.Base(name), mime, r)
	if err != nil {
		return nil, err
	}
	m.Buffers[0].ByteLength = uint32(len(m.Buffers[0].Data)) // avoid AddImage bug
	m.Textures = append(m.Textures,
		&gltf.Texture{Sampler: gltf.Index(0), Source: gltf.Index(src)})
	return gltf.Index(uint32(len(m.Textures)) - 1), nil
}

func (m *fbxToGltf) addMaterial(mat *fbx.Object) uint32 {
	if id, ok := m.materials[mat.UID]; ok {
		return id
	}
	var unlitMaterialExt = "KHR_materials_unlit"
	c := mat.DiffuseColor()
	f := mat.DiffuseFactor()
	alpha := geom.Clamp(float32(mat.Opacity()), 0, 1)
	var rf float32 = 0.4
	var mf = geom.Clamp(float32(mat.Specular()), 0, 1)
	mm := &gltf.Material{
		Name: mat.Name,
		PBRMetallicRoughness: &gltf.PBRMetallicRoughness{
			BaseColorFactor: &[4]float32{
				geom.Clamp(float32(c[0]*f), 0, 1),
				geom.Clamp(float32(c[1]*f), 0, 1),
				geom.Clamp(float32(c[2]*f), 0, 1),
				alpha,
			},
			RoughnessFactor: &rf,
			MetallicFactor:  &mf,
		},
	}
	if tex := mat.DiffuseTexture(); tex != nil {
		// the texture replaces the color
		mm.PBRMetallicRoughness.BaseColorFactor = &[4]float32{1, 1, 1, alpha}
		if id, err := m.addTexture(tex); err == nil {
			mm.PBRMetallicRoughness.BaseColorTexture = &gltf.TextureInfo{Index: *id}
			if img, _ := m.images.Image(tex); img != nil && texture.HasAlpha(img) {
				mm.AlphaMode = gltf.AlphaBlend
			}
		} else {
			m.Logger.Warn("texture read error", zap.String("texture", tex.Name), zap.Error(err))
		}
	}
	if alpha < 0.99 {
		mm.AlphaMode = gltf.AlphaBlend
	}
	if m.ForceUnlit {
		mm.Extensions = map[string]interface{}{unlitMaterialExt: map[string]string{}}
	}
	id := uint32(len(m.Materials))
	m.Materials = append(m.Materials, mm)
	m.materials[mat.UID] = id
	return id
}

// getWeights keeps the four largest influences of each vertex and normalizes them.
func getWeights(me *mesh.Mesh) ([][4]uint16, [][4]float32) {
	joints := make([][4]uint16, len(me.Vertices))
	weights := make([][4]float32, len(me.Vertices))
	for i, v := range me.Vertices {
		bones := append([]mesh.BoneWeight{}, v.Bones...)
		sort.SliceStable(bones, func(a, b int) bool { return bones[a].Weight > bones[b].Weight })
		if len(bones) > 4 {
			bones = bones[:4]
		}
		var sum float32
		for _, b := range bones {
			sum += b.Weight
		}
		for j, b := range bones {
			joints[i][j] = uint16(b.Index)
			if sum > 0 {
				weights[i][j] = b.Weight / sum
			}
		}
	}
	return joints, weights
}

// addSkin creates a skin over the skeleton's bones. Inverse bind matrices come
// from the clusters' TransformLink / Transform pairs when present.
func (m *fbxToGltf) addSkin(model, geometry *fbx.Object, sk *fbx.Skeleton) uint32 {
	deformer := geometry.Deformer()
	joints := make([]uint32, len(sk.Bones))
	invmats := make([][4][4]float32, len(sk.Bones))
	meshWorld := model.WorldMatrix()
	for i, bone := range sk.Bones {
		joints[i] = m.nodes[bone.UID]
		var bind *geom.Matrix4
		if cluster := deformer.Cluster(bone); cluster != nil {
			link, ok1 := cluster.Matrix("TransformLink")
			transform, ok2 := cluster.Matrix("Transform")
			if ok1 && ok2 {
				bind = link.Inverse().Mul(transform)
			}
		}
		if bind == nil {
			bind = bone.WorldMatrix().Inverse().Mul(meshWorld)
		}
		invmats[i] = geom.ScaleTranslation(bind, m.Scale).Columns()
	}
	m.Skins = append(m.Skins, &gltf.Skin{
		Joints:              joints,
		InverseBindMatrices: gltf.Index(m.addMatrices(invmats)),
	})
	return uint32(len(m.Skins) - 1)
}

func (m *fbxToGltf) convertMesh(model *fbx.Object) (*gltf.Mesh, *fbx.Skeleton, error) {
	geometry := model.Geometry()
	me, err := mesh.LoadGeometry(geometry, mesh.WithLogger(m.Logger))
	if err != nil {
		return nil, nil, err
	}
	scale := m.Scale
	positions := make([][3]float32, len(me.Vertices))
	normals := make([][3]float32, len(me.Vertices))
	texcoords := make([][2]float32, len(me.Vertices))
	for i, v := range me.Vertices {
		positions[i] = [3]float32{v.Position.X * scale, v.Position.Y * scale, v.Position.Z * scale}
		normals[i] = [3]float32{v.Normal.X, v.Normal.Y, v.Normal.Z}
		texcoords[i] = [2]float32{v.UV.X, v.UV.Y}
	}
	indices := make([]uint32, 0, len(me.Faces)*3)
	for _, f := range me.Faces {
		indices = append(indices, f[0], f[1], f[2])
	}

	attributes := map[string]uint32{
		"POSITION":   modeler.WritePosition(m.Document, positions),
		"TEXCOORD_0": modeler.WriteTextureCoord(m.Document, texcoords),
	}
	if !m.ForceUnlit {
		attributes["NORMAL"] = modeler.WriteNormal(m.Document, normals)
	}

	var sk *fbx.Skeleton
	if me.Skinned() {
		sk, err = m.scene.Skeleton(geometry.Deformer().Child(0).Bone())
		if err != nil {
			return nil, nil, err
		}
		joints, weights := getWeights(me)
		attributes["JOINTS_0"] = modeler.WriteJoints(m.Document, joints)
		attributes["WEIGHTS_0"] = modeler.WriteWeights(m.Document, weights)
	}

	prim := &gltf.Primitive{
		Indices:    gltf.Index(modeler.WriteIndices(m.Document, indices)),
		Attributes: attributes,
	}
	if mats := model.Materials(); len(mats) > 0 {
		prim.Material = gltf.Index(m.addMaterial(mats[0]))
	}
	return &gltf.Mesh{Name: me.Name, Primitives: []*gltf.Primitive{prim}}, sk, nil
}

// Convert builds a glTF document from every Model of s. Textures that are not
// embedded are read relative to textureDir.
func (m *fbxToGltf) Convert(s *fbx.Scene, textureDir string) (*gltf.Document, error) {
	m.scene = s
	m.images = texture.NewCache(textureDir)
	m.addModelNodes()

	for _, model := range s.Objects.Models {
		if model.Subtype != "Mesh" || model.Geometry() == nil {
			continue
		}
		gm, sk, err := m.convertMesh(model)
		if err != nil {
			return nil, err
		}
		node := m.Nodes[m.nodes[model.UID]]
		node.Mesh = gltf.Index(uint32(len(m.Meshes)))
		m.Meshes = append(m.Meshes, gm)
		if sk != nil {
			node.Skin = gltf.Index(m.addSkin(model, model.Geometry(), sk))
		}
		m.Logger.Debug("converted mesh", zap.String("model", model.Name), zap.Bool("skinned", sk != nil))
	}

	if len(m.Textures) > 0 {
		m.Samplers = []*gltf.Sampler{{}}
	}
	if m.ForceUnlit {
		m.ExtensionsUsed = append(m.ExtensionsUsed, "KHR_materials_unlit")
	}
	return m.Document, nil
}

// SaveGLB writes doc as binary glTF.
func SaveGLB(doc *gltf.Document, path string) error {
	return gltf.SaveBinary(doc, path)
}

// EncodeGLB returns doc as binary glTF bytes.
func EncodeGLB(doc *gltf.Document) ([]byte, error) {
	var buf bytes.Buffer
	enc := gltf.NewEncoder(&buf)
	enc.AsBinary = true
	if err := enc.Encode(doc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
